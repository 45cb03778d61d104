package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"math"
	"sync"

	"github.com/pressly/goose/v3"
)

// LatestVersion asks Migrate for every pending migration.
const LatestVersion int64 = math.MaxInt64

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpTo is a seam for testing goose.UpToContext.
var gooseUpTo = func(ctx context.Context, db *sql.DB, dir string, version int64, opts ...goose.OptionsFunc) error {
	return goose.UpToContext(ctx, db, dir, version, opts...)
}

// Migrate applies the goose migrations found at the root of fsys, up to and
// including version.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dialect string, version int64) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpTo(ctx, db, ".", version); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
