package model

import (
	"encoding/json"
	"time"
)

// QueueItem is one row of intake_queue. Envelope is the stored copy of the
// classification envelope and is never rewritten.
type QueueItem struct {
	ID             int64           `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	Envelope       json.RawMessage `json:"envelope"`
	MessageType    string          `json:"message_type"`
	CreatedAt      time.Time       `json:"created_at"`
	ClaimedAt      *time.Time      `json:"claimed_at,omitempty"`
	Attempts       int             `json:"attempts"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
}

// ClassificationRecord is an audit row describing one materialized
// (or review-only) classification.
type ClassificationRecord struct {
	ID             int64           `json:"id"`
	EventID        string          `json:"event_id"`
	UserID         string          `json:"user_id"`
	ChannelID      string          `json:"channel_id"`
	MessageTS      string          `json:"message_ts"`
	Message        string          `json:"message"`
	Classification json.RawMessage `json:"classification"`
	MessageType    string          `json:"message_type"`
	TaskKey        *string         `json:"task_key,omitempty"`
	GroupKey       *string         `json:"group_key,omitempty"`
	AssigneeHint   *string         `json:"assignee_hint,omitempty"`
	DueDate        *string         `json:"due_date,omitempty"`
	Confidence     float64         `json:"confidence"`
}
