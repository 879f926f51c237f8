// Command refresh runs a single refresh cycle: it downloads both NDBC feeds,
// rebuilds the station catalog and observation maps, writes them to the
// snapshot database, and prints the station count per catalog type. It is
// meant to be run from cron when the HTTP service reads a shared database.
//
// Configuration comes from the same environment variables as the service.
//
// Usage:
//
//	SNAPSHOT_DB_PATH=/var/lib/buoys/buoys.db go run ./cmd/refresh
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	kafkaadapter "github.com/couchcryptid/buoy-placefile/internal/adapter/kafka"
	"github.com/couchcryptid/buoy-placefile/internal/adapter/ndbc"
	"github.com/couchcryptid/buoy-placefile/internal/adapter/sqlite"
	"github.com/couchcryptid/buoy-placefile/internal/config"
	"github.com/couchcryptid/buoy-placefile/internal/observability"
	"github.com/couchcryptid/buoy-placefile/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(cfg.SnapshotDBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	opts := pipeline.Options{Interval: cfg.RefreshInterval}
	if cfg.PublishEnabled() {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		opts.Publisher = publisher
	}

	source := ndbc.NewClient(cfg.CatalogURL, cfg.ConditionsURL, cfg.FetchTimeout, logger)
	p := pipeline.New(source, store, &pipeline.Holder{}, logger, observability.NewMetrics(), opts)

	res, err := p.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "TYPE\tSTATIONS\n")
	for _, tc := range res.Tally {
		fmt.Fprintf(tw, "%s\t%d\n", tc.Type, tc.Count)
	}
	fmt.Fprintf(tw, "total\t%d\n", res.Snapshot.Catalog.Len())
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d observations decoded, %d rows dropped, snapshot %s\n",
		res.Conditions.Decoded, len(res.Conditions.Dropped), res.Snapshot.Generation)
	return nil
}
