package prompts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/dbx"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
)

const columns = `id, owner_id, title, body, tags, is_favorite, created_at, updated_at, deleted_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, p *models.Prompt) error {
	args, err := values(p)
	if err != nil {
		return err
	}
	query := `INSERT INTO prompts (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert prompt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.Prompt) error {
	args, err := values(p)
	if err != nil {
		return err
	}
	query := `INSERT INTO prompts (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			title = excluded.title,
			body = excluded.body,
			tags = excluded.tags,
			is_favorite = excluded.is_favorite,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert prompt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) InsertIfAbsent(ctx context.Context, p *models.Prompt) (bool, error) {
	args, err := values(p)
	if err != nil {
		return false, err
	}
	query := `INSERT INTO prompts (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert prompt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, ownerID string, includeDeleted bool) ([]models.Prompt, error) {
	query := `SELECT ` + columns + ` FROM prompts WHERE owner_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select prompts: %w", err)
	}
	defer rows.Close()

	result := []models.Prompt{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompts: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, ownerID, id string, includeDeleted bool) (*models.Prompt, error) {
	query := `SELECT ` + columns + ` FROM prompts WHERE id = ? AND owner_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	p, err := scan(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prompt %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, p *models.Prompt) error {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return err
	}
	query := `UPDATE prompts SET title = ?, body = ?, tags = ?, is_favorite = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query,
		p.Title, p.Body, tags, p.Favorite, timex.Format(p.UpdatedAt), p.ID, p.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	return expectOne(res, p.ID)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error {
	ts := timex.Format(at)
	query := `UPDATE prompts SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, ts, ts, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	return expectOne(res, id)
}

func (r *SQLiteRepository) ReassignOwner(ctx context.Context, from, to string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE prompts SET owner_id = ?, updated_at = ? WHERE owner_id = ?`,
		to, timex.Format(at), from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign prompts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string, includeDeleted bool) (int, error) {
	query := `SELECT COUNT(*) FROM prompts WHERE owner_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count prompts: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Prompt, error) {
	var (
		p                models.Prompt
		tags             string
		created, updated string
		deleted          sql.NullString
	)
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Body, &tags, &p.Favorite, &created, &updated, &deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan prompt: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of %s: %w", p.ID, err)
	}

	var err error
	if p.CreatedAt, err = timex.Parse(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = timex.Parse(updated); err != nil {
		return nil, err
	}
	if deleted.Valid {
		if p.DeletedAt, err = timex.ParseNullable(&deleted.String); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func values(p *models.Prompt) ([]any, error) {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		p.ID, p.OwnerID, p.Title, p.Body, tags, p.Favorite,
		timex.Format(p.CreatedAt), timex.Format(p.UpdatedAt), timex.FormatPtr(p.DeletedAt),
	}, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("prompt %s: %w", id, common.ErrorNotFound)
	}
	return nil
}
