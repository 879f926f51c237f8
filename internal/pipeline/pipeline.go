// Package pipeline runs the refresh cycle: fetch both NDBC feeds, build the
// catalog and observation maps, persist them, and swap them into service.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
	"github.com/couchcryptid/buoy-placefile/internal/observability"
)

const initialBackoff = 200 * time.Millisecond

// FeedSource retrieves the raw catalog and conditions feeds.
type FeedSource interface {
	FetchCatalog(ctx context.Context) ([]byte, error)
	FetchConditions(ctx context.Context) ([]byte, error)
}

// SnapshotStore persists the latest snapshot and the feeds it was built from.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap domain.Snapshot, feeds map[string][]byte) error
	LoadSnapshot(ctx context.Context) (domain.Snapshot, error)
}

// Publisher fans a snapshot's observations out to downstream consumers.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap domain.Snapshot) (int, error)
}

// Options holds the optional pipeline settings.
type Options struct {
	Interval  time.Duration // time between refreshes; defaults to 5m
	Clock     clockwork.Clock
	Publisher Publisher // nil disables publishing
}

// Pipeline orchestrates the refresh loop.
type Pipeline struct {
	source    FeedSource
	store     SnapshotStore
	holder    *Holder
	publisher Publisher
	clock     clockwork.Clock
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Result describes one successful refresh.
type Result struct {
	Snapshot   domain.Snapshot
	Tally      []domain.TypeCount
	Conditions domain.ConditionsReport
	Published  int
}

// New creates a Pipeline that swaps each new snapshot into holder.
func New(source FeedSource, store SnapshotStore, holder *Holder, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		source:    source,
		store:     store,
		holder:    holder,
		publisher: opts.Publisher,
		clock:     opts.Clock,
		interval:  opts.Interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// Restore loads the last persisted snapshot into the holder so the service
// can answer before the first refresh completes. A missing snapshot is not
// an error.
func (p *Pipeline) Restore(ctx context.Context) error {
	snap, err := p.store.LoadSnapshot(ctx)
	if errors.Is(err, domain.ErrNoSnapshot) {
		p.logger.Info("no stored snapshot, waiting for first refresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	p.holder.Store(snap)
	p.recordSnapshot(snap)
	p.logger.Info("snapshot restored",
		"generation", snap.Generation,
		"stations", snap.Catalog.Len(),
		"observations", len(snap.Observations),
	)
	return nil
}

// Run refreshes immediately and then once per interval until ctx is
// cancelled. A failed refresh is retried with exponential backoff capped at
// the interval; the previous snapshot stays in service meanwhile.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	backoff := initialBackoff
	for {
		if _, err := p.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("refresh failed", "error", err, "retry_in", backoff)
			if !p.sleep(ctx, backoff) {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			backoff = retry.NextBackoff(backoff, p.interval)
			continue
		}
		backoff = initialBackoff

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// Refresh runs one fetch-build-persist-swap cycle.
func (p *Pipeline) Refresh(ctx context.Context) (Result, error) {
	start := p.clock.Now()

	res, err := p.refresh(ctx)
	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.RefreshRuns.WithLabelValues("error").Inc()
		return Result{}, err
	}
	p.metrics.RefreshRuns.WithLabelValues("success").Inc()

	p.logger.Info("refresh complete",
		"generation", res.Snapshot.Generation,
		"stations", res.Snapshot.Catalog.Len(),
		"observations", res.Conditions.Decoded,
		"rows_dropped", len(res.Conditions.Dropped),
		"published", res.Published,
		"duration", p.clock.Since(start),
	)
	return res, nil
}

func (p *Pipeline) refresh(ctx context.Context) (Result, error) {
	var catalogXML, conditionsText []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalogXML, err = p.source.FetchCatalog(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		conditionsText, err = p.source.FetchConditions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	raw, err := domain.ParseCatalogXML(catalogXML)
	if err != nil {
		return Result{}, err
	}
	cat, tally := domain.BuildCatalog(raw)
	for _, tc := range tally {
		p.logger.Debug("catalog station type", "type", tc.Type, "count", tc.Count)
	}

	obs, report, err := domain.ParseConditions(bytes.NewReader(conditionsText))
	if err != nil {
		return Result{}, err
	}
	for _, rowErr := range report.Dropped {
		p.logger.Warn("conditions row dropped", "line", rowErr.Line, "reason", rowErr.Reason)
	}
	p.metrics.RowsDropped.Add(float64(len(report.Dropped)))

	snap := domain.NewSnapshot(p.clock.Now(), cat, obs)
	feeds := map[string][]byte{
		domain.FeedCatalog:    catalogXML,
		domain.FeedConditions: conditionsText,
	}
	if err := p.store.SaveSnapshot(ctx, snap, feeds); err != nil {
		return Result{}, fmt.Errorf("persist snapshot: %w", err)
	}

	p.holder.Store(snap)
	p.recordSnapshot(snap)

	res := Result{Snapshot: snap, Tally: tally, Conditions: report}
	if p.publisher != nil {
		n, err := p.publisher.PublishSnapshot(ctx, snap)
		if err != nil {
			p.logger.Warn("publish observations failed", "error", err)
		}
		p.metrics.ObservationsPublished.Add(float64(n))
		res.Published = n
	}
	return res, nil
}

func (p *Pipeline) recordSnapshot(snap domain.Snapshot) {
	p.metrics.StationsCataloged.Set(float64(snap.Catalog.Len()))
	p.metrics.ObservationsDecoded.Set(float64(len(snap.Observations)))
	p.metrics.LastRefreshTimestamp.Set(float64(snap.RefreshedAt.Unix()))
}

// sleep waits for d on the pipeline clock. It returns false if ctx is
// cancelled first.
func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
