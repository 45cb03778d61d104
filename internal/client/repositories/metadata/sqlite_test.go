package metadata

import (
	"context"
	"database/sql"
	"testing"

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

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)
	return db
}

func TestRepository_SetGetDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	v, err := r.Get(ctx, KeyLastSyncAt)
	require.NoError(t, err)
	assert.Nil(t, v, "missing key")

	require.NoError(t, r.Set(ctx, KeyLastSyncAt, []byte("2024-01-01T00:00:00.000000Z")))
	require.NoError(t, r.Set(ctx, KeyLastSyncAt, []byte("2024-02-01T00:00:00.000000Z")))

	v, err = r.Get(ctx, KeyLastSyncAt)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01T00:00:00.000000Z", string(v))

	require.NoError(t, r.Delete(ctx, KeyLastSyncAt))
	require.NoError(t, r.Delete(ctx, KeyLastSyncAt), "deleting a missing key is fine")

	v, err = r.Get(ctx, KeyLastSyncAt)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRepository_NilValueIsStoredEmpty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyTheme, nil))

	v, err := r.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Empty(t, v)
}

func TestRepository_ErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set metadata[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete metadata[k]")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "seeded:guest", SeededKey("guest"))
	assert.Equal(t, "settings:u1", SettingsKey("u1"))
}
