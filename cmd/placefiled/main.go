package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/buoy-placefile/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/buoy-placefile/internal/adapter/kafka"
	"github.com/couchcryptid/buoy-placefile/internal/adapter/ndbc"
	"github.com/couchcryptid/buoy-placefile/internal/adapter/sqlite"
	"github.com/couchcryptid/buoy-placefile/internal/config"
	"github.com/couchcryptid/buoy-placefile/internal/observability"
	"github.com/couchcryptid/buoy-placefile/internal/pipeline"
	"github.com/couchcryptid/buoy-placefile/internal/placefile"
)

const generator = "buoy-placefile"

// readiness is ready when every check is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(cfg.SnapshotDBPath)
	if err != nil {
		logger.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate snapshot store", "error", err)
		os.Exit(1)
	}

	// Observation publishing is feature-flagged via KAFKA_BROKERS.
	var publisher *kafkaadapter.Publisher
	opts := pipeline.Options{Interval: cfg.RefreshInterval, Clock: clock}
	if cfg.PublishEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		opts.Publisher = publisher
		logger.Info("observation publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("observation publishing disabled")
	}

	source := ndbc.NewClient(cfg.CatalogURL, cfg.ConditionsURL, cfg.FetchTimeout, logger)
	holder := &pipeline.Holder{}
	p := pipeline.New(source, store, holder, logger, metrics, opts)

	if err := p.Restore(ctx); err != nil {
		logger.Warn("could not restore stored snapshot", "error", err)
	}

	renderer, err := placefile.NewCachedRenderer(placefile.NewRenderer(placefile.Options{
		Generator:      generator,
		RefreshMinutes: cfg.RefreshMinutes,
		Location:       cfg.Location,
		DateFormat:     cfg.DateFormat,
		Clock:          clock,
		Logger:         logger,
	}), cfg.RenderCacheSize, metrics)
	if err != nil {
		logger.Error("failed to create renderer", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, readiness{holder, store}, holder, renderer, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
