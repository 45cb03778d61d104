// Package postgres is a remote store backed directly by PostgreSQL, for
// self-hosted deployments without a PostgREST gateway. Ownership is
// enforced in every statement.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/dbx"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations of the remote database.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

type Store struct {
	db dbx.DBTX
}

func New(db dbx.DBTX) *Store {
	return &Store{db: db}
}

var migrate = dbx.Migrate

// Open connects to dsn and applies the migrations. Close the returned
// *sql.DB when done.
func Open(ctx context.Context, dsn string) (*Store, *sql.DB, error) {
	if dsn == "" {
		return nil, nil, common.ErrNotConfigured
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	if err := migrate(ctx, db, Migrations(), "pgx", dbx.LatestVersion); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}
	return New(db), db, nil
}

const selectPrompts = `SELECT id, owner_id, title, body, tags, is_favorite, created_at, updated_at, deleted_at
	FROM prompts WHERE owner_id = $1`

func (s *Store) FetchUpdated(ctx context.Context, owner string, since *time.Time) ([]models.Prompt, error) {
	query := selectPrompts
	args := []any{owner}
	if since != nil {
		query += ` AND updated_at > $2`
		args = append(args, timex.Normalize(*since))
	}
	query += ` ORDER BY updated_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select prompts: %w", err)
	}
	defer rows.Close()

	result := []models.Prompt{}
	for rows.Next() {
		var (
			p       models.Prompt
			tags    []byte
			deleted sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Body, &tags, &p.Favorite,
			&p.CreatedAt, &p.UpdatedAt, &deleted); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return nil, fmt.Errorf("prompt %s tags: %w", p.ID, err)
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		p.CreatedAt = timex.Normalize(p.CreatedAt)
		p.UpdatedAt = timex.Normalize(p.UpdatedAt)
		if deleted.Valid {
			d := timex.Normalize(deleted.Time)
			p.DeletedAt = &d
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompts: %w", err)
	}
	return result, nil
}

// UpsertPrompt inserts p or replaces the row with the same id. A row owned
// by someone else is left alone and ErrOwnershipConflict is returned.
func (s *Store) UpsertPrompt(ctx context.Context, p *models.Prompt) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("prompt %s tags: %w", p.ID, err)
	}

	query := `
		INSERT INTO prompts (id, owner_id, title, body, tags, is_favorite, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			tags = EXCLUDED.tags,
			is_favorite = EXCLUDED.is_favorite,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
			WHERE prompts.owner_id = EXCLUDED.owner_id;
	`
	var deleted any
	if p.DeletedAt != nil {
		deleted = timex.Normalize(*p.DeletedAt)
	}
	res, err := s.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.Title, p.Body, string(rawTags), p.Favorite,
		timex.Normalize(p.CreatedAt), timex.Normalize(p.UpdatedAt), deleted)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("prompt %s: %w", p.ID, common.ErrOwnershipConflict)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (s *Store) GetProfile(ctx context.Context, owner string) (*models.Profile, error) {
	p := &models.Profile{UserID: owner}
	err := s.db.QueryRowContext(ctx,
		`SELECT has_seeded, has_completed_setup, updated_at FROM profiles WHERE id = $1`, owner,
	).Scan(&p.HasSeeded, &p.HasCompletedSetup, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select profile: %w", err)
	}
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p *models.Profile) error {
	at := p.UpdatedAt
	if at.IsZero() {
		at = timex.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, has_seeded, has_completed_setup, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET
			has_seeded = EXCLUDED.has_seeded,
			has_completed_setup = EXCLUDED.has_completed_setup,
			updated_at = EXCLUDED.updated_at;
	`, p.UserID, p.HasSeeded, p.HasCompletedSetup, timex.Normalize(at))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Ping runs a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	return nil
}
