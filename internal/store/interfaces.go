package store

import (
	"context"
	"errors"
	"time"

	"archieos.app/intake/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique constraint
var ErrDuplicate = errors.New("duplicate")

// IntakeEventStore is the durable "seen events" set.
type IntakeEventStore interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	// Insert records eventID and reports whether this call created the row.
	// Inserting an id that already exists is not an error.
	Insert(ctx context.Context, eventID, source string) (bool, error)
}

// IntakeQueueStore defines the contract for the classification queue
type IntakeQueueStore interface {
	Enqueue(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error)
	// ClaimBatch leases up to limit unprocessed items, oldest first. Items
	// leased by another poller within lease are never returned.
	ClaimBatch(ctx context.Context, claimant string, limit int, lease time.Duration) ([]model.QueueItem, error)
	MarkProcessed(ctx context.Context, id int64) error
	// Release drops the lease so the item is retried, recording errMsg.
	Release(ctx context.Context, id int64, errMsg string) error
	ReleaseExpired(ctx context.Context, lease time.Duration) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}

// RealtorStore defines the contract for realtor data access
type RealtorStore interface {
	GetBySlackUserID(ctx context.Context, slackUserID string) (*model.Realtor, error)
	Create(ctx context.Context, realtor *model.Realtor) (*model.Realtor, error)
	UpdateContact(ctx context.Context, realtorID string, name, email, phone *string) (*model.Realtor, error)
}

// ListingStore defines the contract for listing data access
type ListingStore interface {
	Create(ctx context.Context, listing *model.Listing) (*model.Listing, error)
}

// AgentTaskStore defines the contract for agent task data access
type AgentTaskStore interface {
	Create(ctx context.Context, task *model.AgentTask) (*model.AgentTask, error)
}

// ClassificationStore writes the classification audit log
type ClassificationStore interface {
	Insert(ctx context.Context, record *model.ClassificationRecord) error
}
