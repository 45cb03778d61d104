package models

import "time"

// Collection groups prompts by id. It follows the prompt ownership and
// soft-delete rules but stays on the device.
type Collection struct {
	ID        string
	OwnerID   string
	Name      string
	ParentID  *string
	PromptIDs []string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type CollectionInput struct {
	Name     string `validate:"required,max=100"`
	ParentID *string
}

// UsageEvent is an append-only, local-only log entry.
type UsageEvent struct {
	ID       int64
	OwnerID  string
	PromptID string
	Action   string
	At       time.Time
}

const (
	UsageCopy = "copy"
	UsageView = "view"
	UsageRun  = "run"
)
