package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"archieos.app/intake/common/logger"
	"archieos.app/intake/internal/store"
)

type ReclaimerConfig struct {
	// Lease is how long a claim may stay unprocessed before the row is
	// handed back to the queue.
	Lease     time.Duration
	Interval  time.Duration
	BatchSize int64
}

// Reclaimer releases intake_queue claims whose lease expired, covering a
// worker that crashed between claim and commit. It also clears wake-ups
// that were read but never acked.
type Reclaimer struct {
	queue store.IntakeQueueStore
	wakes StaleAcker
	cfg   ReclaimerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

// NewReclaimer creates a Reclaimer. wakes may be nil when Redis is off.
func NewReclaimer(queue store.IntakeQueueStore, wakes StaleAcker, cfg ReclaimerConfig) *Reclaimer {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Reclaimer{
		queue:     queue,
		wakes:     wakes,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the reclaimer loop. Blocks until Stop() is called or ctx ends.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "intake.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"lease", r.cfg.Lease)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			r.ReclaimOnce(ctx)
		}
	}
}

func (r *Reclaimer) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.stoppedCh
}

// ReclaimOnce performs one reclaim cycle and returns the number of queue
// rows released.
func (r *Reclaimer) ReclaimOnce(ctx context.Context) int64 {
	released, err := r.queue.ReleaseExpired(ctx, r.cfg.Lease)
	if err != nil {
		slog.ErrorContext(ctx, "releasing expired claims failed", "error", err)
	} else if released > 0 {
		slog.WarnContext(ctx, "released expired intake claims", "count", released)
	}

	if r.wakes != nil {
		acked, err := r.wakes.AckStale(ctx, r.cfg.Lease, r.cfg.BatchSize)
		if err != nil {
			slog.ErrorContext(ctx, "clearing stale wake messages failed", "error", err)
		} else if acked > 0 {
			slog.InfoContext(ctx, "cleared stale wake messages", "count", acked)
		}
	}

	return released
}
