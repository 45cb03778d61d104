package prompts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
)

// Repository describes storage operations for prompts.
type Repository interface {
	// Insert stores a new prompt.
	Insert(ctx context.Context, p *models.Prompt) error

	// Upsert writes p verbatim, including owner and timestamps. Used for
	// records downloaded from the remote store.
	Upsert(ctx context.Context, p *models.Prompt) error

	// InsertIfAbsent inserts p unless a row with the same id exists.
	// It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, p *models.Prompt) (bool, error)

	// GetAll lists the owner's prompts, newest update first.
	GetAll(ctx context.Context, ownerID string, includeDeleted bool) ([]models.Prompt, error)

	// GetByID returns common.ErrorNotFound for missing or foreign rows.
	GetByID(ctx context.Context, ownerID, id string, includeDeleted bool) (*models.Prompt, error)

	// Update rewrites the content fields and updated_at of an active prompt.
	Update(ctx context.Context, p *models.Prompt) error

	// SoftDelete stamps deleted_at and updated_at.
	SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error

	// ReassignOwner moves every row of from (tombstones included) to to.
	ReassignOwner(ctx context.Context, from, to string, at time.Time) (int64, error)

	// Count returns the number of the owner's rows.
	Count(ctx context.Context, ownerID string, includeDeleted bool) (int, error)
}
