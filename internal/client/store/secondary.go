package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/collections"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/prompts"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/dbx"
)

func (s *Store) CreateCollection(ctx context.Context, in models.CollectionInput) (*models.Collection, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if !s.available() {
		return nil, common.ErrStorageUnavailable
	}
	owner := s.owner()
	if in.ParentID != nil {
		if _, err := s.collections.GetByID(ctx, owner, *in.ParentID); err != nil {
			return nil, fmt.Errorf("parent: %w", err)
		}
	}

	now := s.now()
	c := &models.Collection{
		ID:        s.newID(),
		OwnerID:   owner,
		Name:      in.Name,
		ParentID:  in.ParentID,
		PromptIDs: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.collections.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Collections lists the active collections of the current owner by name.
func (s *Store) Collections(ctx context.Context) ([]models.Collection, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if !s.available() {
		return []models.Collection{}, nil
	}
	return s.collections.GetAll(ctx, s.owner(), false)
}

func (s *Store) RenameCollection(ctx context.Context, id, name string) (*models.Collection, error) {
	in := models.CollectionInput{Name: strings.TrimSpace(name)}
	if err := s.check(); err != nil {
		return nil, err
	}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	return s.editCollection(ctx, id, func(_ context.Context, _ dbx.DBTX, c *models.Collection) error {
		c.Name = in.Name
		return nil
	})
}

// AddToCollection adds an active prompt of the current owner to the collection.
func (s *Store) AddToCollection(ctx context.Context, collectionID, promptID string) (*models.Collection, error) {
	return s.editCollection(ctx, collectionID, func(ctx context.Context, tx dbx.DBTX, c *models.Collection) error {
		if _, err := prompts.NewSQLiteRepository(tx).GetByID(ctx, c.OwnerID, promptID, false); err != nil {
			return err
		}
		if !slices.Contains(c.PromptIDs, promptID) {
			c.PromptIDs = append(c.PromptIDs, promptID)
		}
		return nil
	})
}

func (s *Store) RemoveFromCollection(ctx context.Context, collectionID, promptID string) (*models.Collection, error) {
	return s.editCollection(ctx, collectionID, func(_ context.Context, _ dbx.DBTX, c *models.Collection) error {
		c.PromptIDs = slices.DeleteFunc(c.PromptIDs, func(id string) bool { return id == promptID })
		return nil
	})
}

func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		return fmt.Errorf("collection %s: %w", id, common.ErrorNotFound)
	}
	return s.collections.SoftDelete(ctx, s.owner(), id, s.now())
}

func (s *Store) editCollection(ctx context.Context, id string, edit func(context.Context, dbx.DBTX, *models.Collection) error) (*models.Collection, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if !s.available() {
		return nil, fmt.Errorf("collection %s: %w", id, common.ErrorNotFound)
	}
	owner := s.owner()
	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Collection, error) {
		repo := collections.NewSQLiteRepository(tx)
		c, err := repo.GetByID(ctx, owner, id)
		if err != nil {
			return nil, err
		}
		if err := edit(ctx, tx, c); err != nil {
			return nil, err
		}
		c.UpdatedAt = s.now()
		if err := repo.Update(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	})
}

// RecordUsage appends a usage event for an active prompt of the current owner.
func (s *Store) RecordUsage(ctx context.Context, promptID, action string) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		return nil
	}
	owner := s.owner()
	if _, err := s.prompts.GetByID(ctx, owner, promptID, false); err != nil {
		return err
	}
	return s.usage.Append(ctx, &models.UsageEvent{OwnerID: owner, PromptID: promptID, Action: action, At: s.now()})
}

func (s *Store) RecentUsage(ctx context.Context, limit int) ([]models.UsageEvent, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if !s.available() {
		return []models.UsageEvent{}, nil
	}
	return s.usage.Recent(ctx, s.owner(), limit)
}

// Settings returns the settings blob of the current owner; empty when unset.
func (s *Store) Settings(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if _, err := s.LoadJSON(ctx, metadata.SettingsKey(s.owner()), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings map[string]any) error {
	return s.SaveJSON(ctx, metadata.SettingsKey(s.owner()), settings)
}

// Theme is the last used UI theme. It is device wide, not per owner.
func (s *Store) Theme(ctx context.Context) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	if !s.available() {
		return "", nil
	}
	v, err := s.meta.Get(ctx, metadata.KeyTheme)
	return string(v), err
}

func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		return nil
	}
	return s.meta.Set(ctx, metadata.KeyTheme, []byte(theme))
}
