// Package supabase talks to a Supabase project: PostgREST for the prompts
// and profiles tables and GoTrue for authentication.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const (
	promptsTable  = "prompts"
	profilesTable = "profiles"

	// defaultPageSize matches the default max-rows of a Supabase project.
	defaultPageSize = 1000
)

// Client is both the remote store and the authenticator of a project.
// Requests carry the signed-in user's JWT, so row-level security applies.
type Client struct {
	mu       sync.RWMutex
	sb       *supa.Client
	key      string
	pageSize int
}

// New connects to the project at url with its anon key.
func New(url, anonKey string) (*Client, error) {
	if url == "" || anonKey == "" {
		return nil, common.ErrNotConfigured
	}
	sb, err := supa.NewClient(url, anonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &Client{sb: sb, key: anonKey, pageSize: defaultPageSize}, nil
}

// SetSession makes later requests act as the owner of s. A nil session
// returns to anonymous access.
func (c *Client) SetSession(s *models.AuthSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.sb.UpdateAuthSession(types.Session{AccessToken: c.key})
		return
	}
	c.sb.UpdateAuthSession(types.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    s.ExpiresAt.Unix(),
	})
}

// FetchUpdated pages through the owner's rows by (updated_at, id) so a
// server-side max-rows cap never truncates the result. Paging stops on the
// first empty page; the cap is not known to the client.
func (c *Client) FetchUpdated(ctx context.Context, owner string, since *time.Time) ([]models.Prompt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []models.Prompt{}
	var last *models.Prompt
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := c.fetchPage(owner, since, last)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return out, nil
		}
		for i := range page {
			normalize(&page[i])
		}
		out = append(out, page...)
		tail := out[len(out)-1]
		last = &tail
	}
}

func (c *Client) fetchPage(owner string, since *time.Time, after *models.Prompt) ([]models.Prompt, error) {
	q := c.sb.From(promptsTable).Select("*", "", false).Eq("owner_id", owner)
	if since != nil {
		q = q.Gt("updated_at", timex.Format(*since))
	}
	if after != nil {
		ts := timex.Format(after.UpdatedAt)
		q = q.Or(fmt.Sprintf(`updated_at.gt."%s",and(updated_at.eq."%s",id.gt."%s")`, ts, ts, after.ID), "")
	}
	q = q.Order("updated_at", &postgrest.OrderOpts{Ascending: true}).
		Order("id", &postgrest.OrderOpts{Ascending: true}).
		Limit(c.pageSize, "")

	var rows []models.Prompt
	if _, err := q.ExecuteTo(&rows); err != nil {
		return nil, wrap("fetch prompts", err)
	}
	return rows, nil
}

func (c *Client) UpsertPrompt(ctx context.Context, p *models.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	row := p.Clone()
	if row.Tags == nil {
		row.Tags = []string{}
	}
	if _, _, err := c.sb.From(promptsTable).Upsert(row, "id", "minimal", "").Execute(); err != nil {
		return wrap("upsert prompt "+p.ID, err)
	}
	return nil
}

func (c *Client) GetProfile(ctx context.Context, owner string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var rows []models.Profile
	_, err := c.sb.From(profilesTable).
		Select("id,has_seeded,has_completed_setup,updated_at", "", false).
		Eq("id", owner).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, wrap("get profile", err)
	}
	if len(rows) == 0 {
		return &models.Profile{UserID: owner}, nil
	}
	p := rows[0]
	return &p, nil
}

func (c *Client) SaveProfile(ctx context.Context, p *models.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	row := *p
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = timex.Now()
	}
	if _, _, err := c.sb.From(profilesTable).Upsert(row, "id", "minimal", "").Execute(); err != nil {
		return wrap("save profile", err)
	}
	return nil
}

// Ping runs a cheap query against the profiles table.
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, _, err := c.sb.From(profilesTable).Select("id", "", false).Limit(1, "").Execute(); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func normalize(p *models.Prompt) {
	p.CreatedAt = timex.Normalize(p.CreatedAt)
	p.UpdatedAt = timex.Normalize(p.UpdatedAt)
	if p.DeletedAt != nil {
		d := timex.Normalize(*p.DeletedAt)
		p.DeletedAt = &d
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

// wrap marks transport failures as ErrRemoteUnavailable. PostgREST reports
// HTTP errors as "(code) message"; those are returned as they are.
func wrap(op string, err error) error {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", op, common.ErrRemoteUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
