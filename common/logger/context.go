package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so a flush or queue item carries its
// channel, idempotency key, and queue row into every log line below it.
type LogFields struct {
	ChannelID       *string // Slack conversation id
	SlackUserID     *string // Slack user id (masked when rendered)
	SlackEventID    *string // Derived event identity used for dedup
	IdempotencyKey  *string // "{channel}:{ts}" envelope key
	QueueItemID     *int64  // intake_queue row id
	StreamMessageID *string // Redis stream message ID
	MessageType     *string // GROUP, STRAY, INFO_REQUEST, IGNORE
	Component       string  // Component name (e.g., "intake.debounce.buffer")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.ChannelID != nil {
		result.ChannelID = new.ChannelID
	}
	if new.SlackUserID != nil {
		result.SlackUserID = new.SlackUserID
	}
	if new.SlackEventID != nil {
		result.SlackEventID = new.SlackEventID
	}
	if new.IdempotencyKey != nil {
		result.IdempotencyKey = new.IdempotencyKey
	}
	if new.QueueItemID != nil {
		result.QueueItemID = new.QueueItemID
	}
	if new.StreamMessageID != nil {
		result.StreamMessageID = new.StreamMessageID
	}
	if new.MessageType != nil {
		result.MessageType = new.MessageType
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{QueueItemID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// MaskUserID hides the middle of a Slack user id ("U0123ABCD" -> "U0*****CD").
func MaskUserID(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	masked := make([]byte, len(id))
	for i := range id {
		if i < 2 || i >= len(id)-2 {
			masked[i] = id[i]
		} else {
			masked[i] = '*'
		}
	}
	return string(masked)
}
