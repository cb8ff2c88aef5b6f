package debounce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"archieos.app/intake/common/logger"
	"archieos.app/intake/internal/classifier"
	"archieos.app/intake/internal/domain"
)

// DefaultWindow is used when Config.Window is not positive.
const DefaultWindow = 300 * time.Second

var ErrClosed = errors.New("debounce buffer is shut down")

// Classifier is the downstream consumer of flushed messages.
type Classifier interface {
	ClassifyAndEnqueue(ctx context.Context, msg domain.SlackMessage) classifier.Outcome
}

type Config struct {
	Window time.Duration
	// OnFlush, if set, is called with each drained batch before its events
	// are processed.
	OnFlush func(conversationID string, batch []domain.InboundEvent)
}

// Buffer groups events per conversation and flushes a conversation once
// no new event has arrived for it within the window. Each conversation
// has at most one armed timer; arming a new one makes the previous one
// inert even if it has already fired.
type Buffer struct {
	cfg        Config
	classifier Classifier
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	convs  map[string]*conversation
	closed bool
	wg     sync.WaitGroup
}

type conversation struct {
	events []domain.InboundEvent
	timer  *time.Timer
	gen    uint64
}

func New(cfg Config, c Classifier, log *slog.Logger) *Buffer {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(logger.WithLogFields(context.Background(), logger.LogFields{
		Component: "intake.debounce",
	}))

	return &Buffer{
		cfg:        cfg,
		classifier: c,
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
		convs:      make(map[string]*conversation),
	}
}

// Enqueue buffers evt under its conversation and re-arms that
// conversation's timer. Events without a conversation are processed
// immediately.
func (b *Buffer) Enqueue(evt domain.InboundEvent) error {
	convID := evt.ConversationID()
	if convID == "" {
		b.logger.DebugContext(b.ctx, "event has no conversation, processing immediately", "type", evt.Type)
		b.processSafe(b.ctx, evt)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	c, ok := b.convs[convID]
	if !ok {
		c = &conversation{}
		b.convs[convID] = c
	}
	c.events = append(c.events, evt)
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(b.cfg.Window, func() { b.fire(convID, gen) })

	b.logger.DebugContext(b.ctx, "event buffered",
		"channel_id", convID,
		"buffered", len(c.events),
		"window", b.cfg.Window)
	return nil
}

// Pending returns the number of buffered events across all conversations.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.convs {
		n += len(c.events)
	}
	return n
}

func (b *Buffer) fire(convID string, gen uint64) {
	b.mu.Lock()
	c, ok := b.convs[convID]
	if !ok || c.gen != gen || b.closed {
		// Superseded by a newer timer, or Shutdown already took the batch.
		b.mu.Unlock()
		return
	}
	batch := c.events
	delete(b.convs, convID)
	b.wg.Add(1)
	b.mu.Unlock()

	defer b.wg.Done()
	b.flush(convID, batch)
}

func (b *Buffer) flush(convID string, batch []domain.InboundEvent) {
	ctx := logger.WithLogFields(b.ctx, logger.LogFields{ChannelID: &convID})
	b.logger.InfoContext(ctx, "flushing conversation", "events", len(batch))

	if b.cfg.OnFlush != nil {
		b.cfg.OnFlush(convID, batch)
	}

	for _, evt := range batch {
		b.processSafe(ctx, evt)
	}
}

func (b *Buffer) processSafe(ctx context.Context, evt domain.InboundEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "panic recovered while processing buffered event",
				"panic", fmt.Sprint(r),
				"event_id", evt.EventID)
		}
	}()
	b.process(ctx, evt)
}

func (b *Buffer) process(ctx context.Context, evt domain.InboundEvent) {
	msg, ok := evt.ExtractMessage()
	if !ok {
		b.logger.DebugContext(ctx, "event missing text, user, channel, or ts; skipping",
			"event_id", evt.EventID,
			"type", evt.Type)
		return
	}
	msg.Links = classifier.ExtractLinks(msg.Text)

	outcome := b.classifier.ClassifyAndEnqueue(ctx, msg)
	if outcome.Enqueued() {
		b.logger.DebugContext(ctx, "buffered event enqueued", "queue_item_id", outcome.QueueItemID)
		return
	}
	b.logger.DebugContext(ctx, "buffered event skipped", "skip_reason", outcome.Reason)
}

// Shutdown stops accepting events, flushes every buffered conversation
// without waiting for its window, and waits for all flushes to finish.
// If ctx ends first, in-flight classification is cancelled.
func (b *Buffer) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	pending := b.convs
	b.convs = make(map[string]*conversation)
	for _, c := range pending {
		c.timer.Stop()
	}
	b.mu.Unlock()

	if len(pending) > 0 {
		b.logger.InfoContext(b.ctx, "draining debounce buffer", "conversations", len(pending))
	}
	for convID, c := range pending {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.flush(convID, c.events)
		}()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.cancel()
		return nil
	case <-ctx.Done():
		b.cancel()
		<-done
		return fmt.Errorf("draining debounce buffer: %w", ctx.Err())
	}
}
