// Package collections stores prompt collections. Collections are owner
// scoped and soft deleted like prompts, but they are never synchronized.
package collections

import (
	"context"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
)

type Repository interface {
	Insert(ctx context.Context, c *models.Collection) error
	GetAll(ctx context.Context, ownerID string, includeDeleted bool) ([]models.Collection, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Collection, error)
	Update(ctx context.Context, c *models.Collection) error
	SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error
	ReassignOwner(ctx context.Context, from, to string, at time.Time) (int64, error)
}
