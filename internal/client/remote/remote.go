// Package remote defines the remote store the sync engine reconciles
// against. Implementations live in the subpackages.
package remote

import (
	"context"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
)

// Store is the remote data API. Every call is scoped to one owner and the
// backend is trusted to enforce row-level access for it.
type Store interface {
	// FetchUpdated returns the owner's prompts updated after since, or all of
	// them when since is nil. Tombstones are included. The result is never
	// truncated: backends that cap response size page internally.
	FetchUpdated(ctx context.Context, owner string, since *time.Time) ([]models.Prompt, error)

	// UpsertPrompt inserts or replaces p by id. Repeating the same call
	// leaves the remote state unchanged.
	UpsertPrompt(ctx context.Context, p *models.Prompt) error

	// GetProfile returns the owner's profile; a missing profile is a zero
	// Profile with UserID set, not an error.
	GetProfile(ctx context.Context, owner string) (*models.Profile, error)

	SaveProfile(ctx context.Context, p *models.Profile) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
