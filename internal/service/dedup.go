package service

import (
	"context"
	"log/slog"

	"archieos.app/intake/internal/store"
)

// SourceSlack tags rows written to intake_events by the webhook.
const SourceSlack = "slack"

// DedupParams describes one inbound delivery.
type DedupParams struct {
	EventID     string
	RetryNum    string // X-Slack-Retry-Num, informational
	RetryReason string // X-Slack-Retry-Reason, informational
}

// Deduplicator decides whether an inbound delivery was already seen.
type Deduplicator interface {
	IsDuplicate(ctx context.Context, params DedupParams) bool
}

type deduplicator struct {
	events store.IntakeEventStore
	logger *slog.Logger
}

func NewDeduplicator(events store.IntakeEventStore, logger *slog.Logger) Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &deduplicator{events: events, logger: logger}
}

// IsDuplicate checks the seen set and records the event when it is new.
// Storage faults fail open.
func (d *deduplicator) IsDuplicate(ctx context.Context, params DedupParams) bool {
	exists, err := d.events.Exists(ctx, params.EventID)
	if err != nil {
		d.logger.ErrorContext(ctx, "event existence check failed, treating as new",
			"error", err,
			"event_id", params.EventID)
		return false
	}
	if exists {
		d.logger.InfoContext(ctx, "duplicate slack delivery ignored",
			"event_id", params.EventID,
			"retry_num", params.RetryNum,
			"retry_reason", params.RetryReason)
		return true
	}

	inserted, err := d.events.Insert(ctx, params.EventID, SourceSlack)
	if err != nil {
		d.logger.WarnContext(ctx, "recording seen event failed",
			"error", err,
			"event_id", params.EventID)
		return false
	}
	if !inserted {
		// A concurrent delivery of the same event won the insert.
		d.logger.InfoContext(ctx, "duplicate slack delivery ignored (concurrent)",
			"event_id", params.EventID,
			"retry_num", params.RetryNum)
		return true
	}
	return false
}
