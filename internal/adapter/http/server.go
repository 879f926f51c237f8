package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
	"github.com/couchcryptid/buoy-placefile/internal/observability"
	"github.com/couchcryptid/buoy-placefile/internal/placefile"
)

const (
	contentTypePlacefile = "text/plain; charset=ISO-8859-1"
	msgNoData            = "No buoy observations are available yet. Try again shortly."
	msgRenderFailed      = "Placefile generation failed."
)

// SnapshotSource returns the snapshot currently in service.
type SnapshotSource interface {
	Load() (domain.Snapshot, bool)
}

// PlacefileRenderer renders a request against a snapshot.
type PlacefileRenderer interface {
	RenderPlacefile(req placefile.Request, snap domain.Snapshot) ([]byte, placefile.Summary, error)
}

// Server exposes the placefile endpoint plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotSource
	renderer   PlacefileRenderer
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /placefile, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, snapshots SnapshotSource, renderer PlacefileRenderer, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		renderer:  renderer,
		metrics:   metrics,
		logger:    logger,
	}

	mux.HandleFunc("GET /placefile", s.handlePlacefile)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handlePlacefile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := placefile.ParseRequest(q.Get("lat"), q.Get("lon"), q.Get("version"))
	if err != nil {
		var reqErr *placefile.RequestError
		if !errors.As(err, &reqErr) {
			s.fail(w, http.StatusInternalServerError, "error", msgRenderFailed)
			return
		}
		s.logger.Debug("placefile request rejected", "query", r.URL.RawQuery, "reason", reqErr.Message)
		s.fail(w, http.StatusBadRequest, "invalid", reqErr.Message)
		return
	}

	snap, ok := s.snapshots.Load()
	if !ok {
		s.fail(w, http.StatusServiceUnavailable, "unavailable", msgNoData)
		return
	}

	body, sum, err := s.renderer.RenderPlacefile(req, snap)
	if err != nil {
		s.logger.Error("render placefile", "error", err)
		s.fail(w, http.StatusInternalServerError, "error", msgRenderFailed)
		return
	}

	latin1, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).Bytes(body)
	if err != nil {
		s.logger.Error("encode placefile", "error", err)
		s.fail(w, http.StatusInternalServerError, "error", msgRenderFailed)
		return
	}

	s.metrics.Renders.WithLabelValues("ok").Inc()
	s.metrics.RenderedStations.Observe(float64(sum.Rendered))
	s.logger.Debug("placefile rendered",
		"lat", req.Lat,
		"lon", req.Lon,
		"version", req.Version,
		"rendered", sum.Rendered,
		"out_of_range", sum.OutOfRange,
		"no_station_info", sum.NoStationInfo,
	)

	w.Header().Set("Content-Type", contentTypePlacefile)
	w.Header().Set("Content-Length", strconv.Itoa(len(latin1)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(latin1)
}

// fail writes a single plain-text diagnostic line.
func (s *Server) fail(w http.ResponseWriter, status int, outcome, msg string) {
	s.metrics.Renders.WithLabelValues(outcome).Inc()
	w.Header().Set("Content-Type", contentTypePlacefile)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg + "\n"))
}
