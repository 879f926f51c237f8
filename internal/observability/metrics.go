package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "buoy_placefile"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// refresh pipeline and the placefile endpoint.
type Metrics struct {
	PipelineRunning prometheus.Gauge

	// Refresh cycle metrics.
	RefreshRuns           *prometheus.CounterVec // labels: outcome={success,error}
	RefreshDuration       prometheus.Histogram
	LastRefreshTimestamp  prometheus.Gauge
	StationsCataloged     prometheus.Gauge
	ObservationsDecoded   prometheus.Gauge
	RowsDropped           prometheus.Counter
	ObservationsPublished prometheus.Counter

	// Render metrics.
	Renders          *prometheus.CounterVec // labels: outcome={ok,invalid,unavailable,error}
	RenderedStations prometheus.Histogram
	RenderCache      *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.PipelineRunning,
		m.RefreshRuns,
		m.RefreshDuration,
		m.LastRefreshTimestamp,
		m.StationsCataloged,
		m.ObservationsDecoded,
		m.RowsDropped,
		m.ObservationsPublished,
		m.Renders,
		m.RenderedStations,
		m.RenderCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the refresh loop is active, 0 when shut down."),
		}),
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      help("Refresh cycles by outcome."),
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      help("Duration of a fetch-build-store refresh cycle."),
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastRefreshTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      help("Unix time of the snapshot currently served."),
		}),
		StationsCataloged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_cataloged",
			Help:      help("Stations in the current catalog snapshot."),
		}),
		ObservationsDecoded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations_decoded",
			Help:      help("Observations in the current conditions snapshot."),
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conditions_rows_dropped_total",
			Help:      help("Conditions feed rows dropped as undecodable."),
		}),
		ObservationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_published_total",
			Help:      help("Observations written to the Kafka topic."),
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      help("Placefile requests by outcome."),
		}, []string{"outcome"}),
		RenderedStations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rendered_stations",
			Help:      help("Stations emitted per placefile."),
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}),
		RenderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_cache_total",
			Help:      help("Render cache lookups by result."),
		}, []string{"result"}),
	}
}
