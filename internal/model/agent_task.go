package model

import (
	"encoding/json"
	"time"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusClaimed    TaskStatus = "CLAIMED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

type TaskCategory string

const (
	TaskCategoryAdmin      TaskCategory = "ADMIN"
	TaskCategoryMarketing  TaskCategory = "MARKETING"
	TaskCategoryPhoto      TaskCategory = "PHOTO"
	TaskCategoryStaging    TaskCategory = "STAGING"
	TaskCategoryInspection TaskCategory = "INSPECTION"
	TaskCategoryOther      TaskCategory = "OTHER"
)

type AgentTask struct {
	ID           string          `json:"task_id"`
	RealtorID    string          `json:"realtor_id"`
	ListingID    *string         `json:"listing_id,omitempty"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Status       TaskStatus      `json:"status"`
	Priority     int             `json:"priority"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	TaskCategory TaskCategory    `json:"task_category"`
	TaskKey      *string         `json:"task_key,omitempty"`
	Inputs       json.RawMessage `json:"inputs"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
