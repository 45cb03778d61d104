package collections

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE collections (
  id         TEXT PRIMARY KEY,
  owner_id   TEXT,
  name       TEXT NOT NULL,
  parent_id  TEXT,
  prompt_ids TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  deleted_at TEXT
);`)
	require.NoError(t, err)
	return db
}

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestInsertGetUpdate(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	parent := "root"
	c := &models.Collection{ID: "c1", OwnerID: "u1", Name: "Writing", ParentID: &parent, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, r.Insert(ctx, c))

	got, err := r.GetByID(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "root", *got.ParentID)
	assert.Empty(t, got.PromptIDs)

	got.PromptIDs = []string{"p1", "p2"}
	got.ParentID = nil
	got.UpdatedAt = t0.Add(time.Minute)
	require.NoError(t, r.Update(ctx, got))

	again, err := r.GetByID(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, again.PromptIDs)
	assert.Nil(t, again.ParentID)

	_, err = r.GetByID(ctx, "u2", "c1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetAll_SortedByNameAndScoped(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, c := range []models.Collection{
		{ID: "b", OwnerID: "u1", Name: "Beta", CreatedAt: t0, UpdatedAt: t0},
		{ID: "a", OwnerID: "u1", Name: "Alpha", CreatedAt: t0, UpdatedAt: t0},
		{ID: "z", OwnerID: "u2", Name: "Other", CreatedAt: t0, UpdatedAt: t0},
	} {
		c := c
		require.NoError(t, r.Insert(ctx, &c))
	}

	list, err := r.GetAll(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, "Beta", list[1].Name)
}

func TestSoftDeleteAndReassign(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, &models.Collection{ID: "c1", OwnerID: "guest", Name: "A", CreatedAt: t0, UpdatedAt: t0}))
	require.NoError(t, r.Insert(ctx, &models.Collection{ID: "c2", OwnerID: "guest", Name: "B", CreatedAt: t0, UpdatedAt: t0}))

	require.ErrorIs(t, r.SoftDelete(ctx, "u1", "c1", t0), common.ErrorNotFound)
	require.NoError(t, r.SoftDelete(ctx, "guest", "c1", t0.Add(time.Minute)))

	active, err := r.GetAll(ctx, "guest", false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	n, err := r.ReassignOwner(ctx, "guest", "u1", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	all, err := r.GetAll(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdate_MissingIsNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	err := r.Update(context.Background(), &models.Collection{ID: "nope", OwnerID: "u1", UpdatedAt: t0})
	require.ErrorIs(t, err, common.ErrorNotFound)
}
