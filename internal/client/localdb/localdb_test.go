package localdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpen_CreatesFileAndSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "promptkeeper.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	for _, name := range []string{"prompts", "collections", "metadata", "usage_events", "goose_db_version"} {
		assert.True(t, tableExists(t, db, name), name)
	}
	assert.FileExists(t, path)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, tableExists(t, db, "prompts"))
}

func TestOwnerScopeMigration_BackfillsGuest(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open(driverName, filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateTo(ctx, db, 1))
	_, err = db.Exec(`INSERT INTO prompts (id, title, created_at, updated_at)
		VALUES ('legacy', 'Old prompt', '2023-01-01T00:00:00.000000Z', '2023-01-01T00:00:00.000000Z')`)
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, db))

	var owner string
	require.NoError(t, db.QueryRow(`SELECT owner_id FROM prompts WHERE id = 'legacy'`).Scan(&owner))
	assert.Equal(t, "guest", owner)
}

func TestOpen_BadPath(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(context.Background(), dir)
	require.Error(t, err)
}
