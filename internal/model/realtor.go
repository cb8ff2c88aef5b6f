package model

import (
	"encoding/json"
	"time"
)

type RealtorStatus string

const (
	RealtorStatusActive    RealtorStatus = "active"
	RealtorStatusInactive  RealtorStatus = "inactive"
	RealtorStatusSuspended RealtorStatus = "suspended"
	RealtorStatusPending   RealtorStatus = "pending"
)

// Realtor is the canonical person record, one per resolved Slack user.
type Realtor struct {
	ID            string          `json:"realtor_id"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	Phone         *string         `json:"phone,omitempty"`
	LicenseNumber *string         `json:"license_number,omitempty"`
	Brokerage     *string         `json:"brokerage,omitempty"`
	SlackUserID   *string         `json:"slack_user_id,omitempty"`
	Territories   []string        `json:"territories"`
	Status        RealtorStatus   `json:"status"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
