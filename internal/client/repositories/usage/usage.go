// Package usage keeps the append-only usage log. Events never leave the device.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/dbx"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
)

type Repository interface {
	Append(ctx context.Context, e *models.UsageEvent) error
	Recent(ctx context.Context, ownerID string, limit int) ([]models.UsageEvent, error)
	ReassignOwner(ctx context.Context, from, to string) (int64, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append stores e and sets its ID.
func (r *SQLiteRepository) Append(ctx context.Context, e *models.UsageEvent) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_events (owner_id, prompt_id, action, at) VALUES (?, ?, ?, ?)`,
		e.OwnerID, e.PromptID, e.Action, timex.Format(e.At))
	if err != nil {
		return fmt.Errorf("failed to append usage event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read usage event id: %w", err)
	}
	e.ID = id
	return nil
}

// Recent returns up to limit events, newest first.
func (r *SQLiteRepository) Recent(ctx context.Context, ownerID string, limit int) ([]models.UsageEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, owner_id, prompt_id, action, at FROM usage_events
		WHERE owner_id = ? ORDER BY at DESC, id DESC LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select usage events: %w", err)
	}
	defer rows.Close()

	result := []models.UsageEvent{}
	for rows.Next() {
		var e models.UsageEvent
		var at string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.PromptID, &e.Action, &at); err != nil {
			return nil, fmt.Errorf("failed to scan usage event: %w", err)
		}
		t, err := timex.Parse(at)
		if err != nil {
			return nil, err
		}
		e.At = t
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage events: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) ReassignOwner(ctx context.Context, from, to string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE usage_events SET owner_id = ? WHERE owner_id = ?`, to, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign usage events: %w", err)
	}
	return res.RowsAffected()
}

// Since is a convenience filter over Recent results.
func Since(events []models.UsageEvent, t time.Time) []models.UsageEvent {
	out := events[:0:0]
	for _, e := range events {
		if !e.At.Before(t) {
			out = append(out, e)
		}
	}
	return out
}
