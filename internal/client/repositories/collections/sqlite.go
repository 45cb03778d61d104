package collections

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

const columns = `id, owner_id, name, parent_id, prompt_ids, created_at, updated_at, deleted_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.Collection) error {
	ids, err := encodeIDs(c.PromptIDs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO collections (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, nullable(c.ParentID), ids,
		timex.Format(c.CreatedAt), timex.Format(c.UpdatedAt), timex.FormatPtr(c.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, ownerID string, includeDeleted bool) ([]models.Collection, error) {
	query := `SELECT ` + columns + ` FROM collections WHERE owner_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select collections: %w", err)
	}
	defer rows.Close()

	result := []models.Collection{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Collection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM collections WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`, id, ownerID)
	c, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", id, common.ErrorNotFound)
	}
	return c, err
}

func (r *SQLiteRepository) Update(ctx context.Context, c *models.Collection) error {
	ids, err := encodeIDs(c.PromptIDs)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE collections SET name = ?, parent_id = ?, prompt_ids = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`,
		c.Name, nullable(c.ParentID), ids, timex.Format(c.UpdatedAt), c.ID, c.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	return expectOne(res, c.ID)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error {
	ts := timex.Format(at)
	res, err := r.db.ExecContext(ctx, `UPDATE collections SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`, ts, ts, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return expectOne(res, id)
}

func (r *SQLiteRepository) ReassignOwner(ctx context.Context, from, to string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE collections SET owner_id = ?, updated_at = ? WHERE owner_id = ?`, to, timex.Format(at), from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign collections: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Collection, error) {
	var (
		c                models.Collection
		parent, deleted  sql.NullString
		ids              string
		created, updated string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &parent, &ids, &created, &updated, &deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}
	if parent.Valid {
		p := parent.String
		c.ParentID = &p
	}
	if err := json.Unmarshal([]byte(ids), &c.PromptIDs); err != nil {
		return nil, fmt.Errorf("failed to decode prompt ids of %s: %w", c.ID, err)
	}

	var err error
	if c.CreatedAt, err = timex.Parse(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = timex.Parse(updated); err != nil {
		return nil, err
	}
	if deleted.Valid {
		if c.DeletedAt, err = timex.ParseNullable(&deleted.String); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt ids: %w", err)
	}
	return string(b), nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("collection %s: %w", id, common.ErrorNotFound)
	}
	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
