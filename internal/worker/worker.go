package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"archieos.app/intake/common/logger"
	"archieos.app/intake/internal/queue"
)

type Config struct {
	BatchSize int
	// MaxRounds bounds how many full batches one drain may run back to back.
	MaxRounds int
}

// Worker drains intake_queue whenever it is woken, either by a Redis wake
// message or by the poll schedule calling Drain. Only one drain runs at a
// time per worker; overlapping triggers are coalesced.
type Worker struct {
	wakes  WakeSource
	poller Poller
	cfg    Config

	mu      sync.Mutex
	running bool
	rerun   bool

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

// New builds a worker. wakes may be nil, in which case Run only waits for
// shutdown and draining is driven entirely by Drain.
func New(wakes WakeSource, poller Poller, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 10
	}
	return &Worker{
		wakes:     wakes,
		poller:    poller,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "intake.worker"})
	slog.InfoContext(ctx, "worker started", "batch_size", w.cfg.BatchSize, "wake_stream", w.wakes != nil)

	if w.wakes == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processWakeups(ctx); err != nil {
				slog.ErrorContext(ctx, "wake-up processing error", "error", err)
				select {
				case <-ctx.Done():
				case <-w.stopCh:
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.stoppedCh
}

func (w *Worker) processWakeups(ctx context.Context) error {
	messages, err := w.wakes.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading wake stream: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	for _, msg := range messages {
		msgID := msg.ID
		itemID := msg.QueueItemID
		slog.DebugContext(logger.WithLogFields(ctx, logger.LogFields{
			StreamMessageID: &msgID,
			QueueItemID:     &itemID,
			MessageType:     &msg.MessageType,
		}), "wake message received")
	}

	w.Drain(ctx)

	// The rows are durable in Postgres, so wake-ups are acked even when
	// the drain left items for a later attempt.
	return w.wakes.Ack(ctx, messageIDs(messages)...)
}

// Drain processes batches until the queue is empty, MaxRounds is hit, or
// a claim fails. It returns the number of items processed. A call that
// arrives while another drain is in flight returns 0 and makes the running
// drain go around once more.
func (w *Worker) Drain(ctx context.Context) int {
	w.mu.Lock()
	if w.running {
		w.rerun = true
		w.mu.Unlock()
		return 0
	}
	w.running = true
	w.mu.Unlock()

	total := 0
	for {
		total += w.drainRounds(ctx)

		w.mu.Lock()
		again := w.rerun && ctx.Err() == nil
		w.rerun = false
		if !again {
			w.running = false
		}
		w.mu.Unlock()
		if !again {
			break
		}
	}

	if total > 0 {
		slog.InfoContext(ctx, "intake drain complete", "processed", total)
	}
	return total
}

func (w *Worker) drainRounds(ctx context.Context) int {
	total := 0
	for round := 0; round < w.cfg.MaxRounds; round++ {
		processed, err := w.pollSafe(ctx)
		total += processed
		if err != nil {
			slog.ErrorContext(ctx, "intake poll failed", "error", err, "round", round)
			break
		}
		if processed < w.cfg.BatchSize || ctx.Err() != nil {
			break
		}
	}
	return total
}

func (w *Worker) pollSafe(ctx context.Context) (processed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in intake poll", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.poller.PollAndIngestOnce(ctx, w.cfg.BatchSize)
}

func messageIDs(messages []queue.Message) []string {
	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	return ids
}
