package model

import (
	"encoding/json"
	"time"
)

// ListingStatusNew is the status every intake-created listing starts in.
const ListingStatusNew = "new"

type Listing struct {
	ID            string          `json:"listing_id"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	AddressString string          `json:"address_string"`
	RealtorID     *string         `json:"realtor_id,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
