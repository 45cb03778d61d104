package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/prompts"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/dbx"
)

// Create stores a new prompt owned by the current scope and returns it.
// Storage failures are logged and the unsaved record is returned.
func (s *Store) Create(ctx context.Context, in models.PromptInput) (*models.Prompt, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = cleanTags(in.Tags)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Prompt{
		ID:        s.newID(),
		OwnerID:   s.owner(),
		Title:     in.Title,
		Body:      in.Body,
		Tags:      in.Tags,
		Favorite:  in.Favorite,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !s.available() {
		s.log.Warn(ctx, "storage unavailable, prompt not saved", "id", p.ID)
		return p, nil
	}
	if err := s.prompts.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("save prompt %s: %w", p.ID, err)
	}
	return p, nil
}

// GetAll lists the current owner's prompts, most recently updated first.
func (s *Store) GetAll(ctx context.Context, includeDeleted bool) ([]models.Prompt, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if !s.available() {
		return []models.Prompt{}, nil
	}
	return s.prompts.GetAll(ctx, s.owner(), includeDeleted)
}

// GetByID returns an active prompt of the current owner.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Prompt, error) {
	return s.Get(ctx, id, false)
}

// Get is GetByID that can also return tombstones.
func (s *Store) Get(ctx context.Context, id string, includeDeleted bool) (*models.Prompt, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if !s.available() {
		return nil, fmt.Errorf("prompt %s: %w", id, common.ErrorNotFound)
	}
	return s.prompts.GetByID(ctx, s.owner(), id, includeDeleted)
}

// Update applies patch to an active prompt of the current owner and
// re-stamps updated_at. The owner never changes.
func (s *Store) Update(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if !s.available() {
		return nil, fmt.Errorf("prompt %s: %w", id, common.ErrorNotFound)
	}
	owner := s.owner()

	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Prompt, error) {
		repo := prompts.NewSQLiteRepository(tx)
		p, err := repo.GetByID(ctx, owner, id, false)
		if err != nil {
			return nil, err
		}
		if patch.Empty() {
			return p, nil
		}

		in := models.PromptInput{Title: p.Title, Body: p.Body, Tags: p.Tags, Favorite: p.Favorite}
		if patch.Title != nil {
			in.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Body != nil {
			in.Body = *patch.Body
		}
		if patch.Tags != nil {
			in.Tags = cleanTags(*patch.Tags)
		}
		if patch.Favorite != nil {
			in.Favorite = *patch.Favorite
		}
		if err := s.validateInput(in); err != nil {
			return nil, err
		}

		p.Title, p.Body, p.Tags, p.Favorite = in.Title, in.Body, in.Tags, in.Favorite
		p.UpdatedAt = s.now()
		if err := repo.Update(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	})
}

// SoftDelete marks an active prompt of the current owner as deleted.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		return fmt.Errorf("prompt %s: %w", id, common.ErrorNotFound)
	}
	return s.prompts.SoftDelete(ctx, s.owner(), id, s.now())
}

// Search scores the active prompts against the words of query: a word found
// in the title counts 3, in a tag 2, in the body 1. Only prompts with a
// positive score are returned, best first. A blank query returns GetAll.
func (s *Store) Search(ctx context.Context, query string) ([]models.Prompt, error) {
	all, err := s.GetAll(ctx, false)
	if err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return all, nil
	}

	type hit struct {
		p     models.Prompt
		score int
	}
	hits := make([]hit, 0, len(all))
	for _, p := range all {
		if sc := score(p, terms); sc > 0 {
			hits = append(hits, hit{p: p, score: sc})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]models.Prompt, len(hits))
	for i, h := range hits {
		out[i] = h.p
	}
	return out, nil
}

func score(p models.Prompt, terms []string) int {
	title := strings.ToLower(p.Title)
	body := strings.ToLower(p.Body)
	total := 0
	for _, t := range terms {
		if strings.Contains(title, t) {
			total += 3
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), t) {
				total += 2
				break
			}
		}
		if strings.Contains(body, t) {
			total++
		}
	}
	return total
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
