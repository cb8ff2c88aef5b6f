package worker

import (
	"context"
	"time"

	"archieos.app/intake/internal/queue"
)

// WakeSource abstracts the Redis wake-up stream for testability.
type WakeSource interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, ids ...string) error
}

// StaleAcker clears wake-ups left pending by a crashed worker.
type StaleAcker interface {
	AckStale(ctx context.Context, idle time.Duration, count int64) (int, error)
}

// Poller drains the intake queue. Implemented by intake.Processor.
type Poller interface {
	PollAndIngestOnce(ctx context.Context, maxMessages int) (int, error)
}
