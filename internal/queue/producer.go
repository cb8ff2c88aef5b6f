package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// WakeMessage tells workers that a queue row is ready. The row in
// intake_queue stays the source of truth; a lost wake-up only delays
// processing until the next scheduled poll.
type WakeMessage struct {
	QueueItemID    int64
	MessageType    string
	IdempotencyKey string
	TraceID        string
}

type Producer interface {
	Notify(ctx context.Context, msg WakeMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Notify(ctx context.Context, msg WakeMessage) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: messageValues(msg),
	}).Err(); err != nil {
		return fmt.Errorf("publish wake message: %w", err)
	}

	p.logger.DebugContext(ctx, "published wake message",
		"queue_item_id", msg.QueueItemID,
		"message_type", msg.MessageType)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

// NoopProducer is used when no Redis URL is configured; workers then
// rely on the poll schedule alone.
type NoopProducer struct{}

func (NoopProducer) Notify(context.Context, WakeMessage) error { return nil }
func (NoopProducer) Close() error                             { return nil }

func messageValues(msg WakeMessage) map[string]any {
	values := map[string]any{
		"queue_item_id":   msg.QueueItemID,
		"message_type":    msg.MessageType,
		"idempotency_key": msg.IdempotencyKey,
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	return values
}
