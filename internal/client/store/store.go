// Package store is the owner-scoped local store of prompts and their
// secondary entities. It wraps the SQLite repositories, keeps the current
// owner scope and degrades to memory-only operation when the database file
// cannot be opened.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/localdb"
	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/collections"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/prompts"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/usage"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Mode tells where the store keeps its data.
type Mode int

const (
	// ModePersistent writes to the database file.
	ModePersistent Mode = iota
	// ModeMemory uses an in-memory database that is lost on exit.
	ModeMemory
	// ModeUnavailable keeps nothing.
	ModeUnavailable
)

func (m Mode) String() string {
	switch m {
	case ModePersistent:
		return "persistent"
	case ModeMemory:
		return "memory"
	default:
		return "unavailable"
	}
}

const DefaultInitTimeout = 3 * time.Second

type Options struct {
	Path        string
	InitTimeout time.Duration
}

var (
	openFile   = localdb.Open
	openMemory = localdb.OpenMemory
)

type Store struct {
	db          *sql.DB
	prompts     prompts.Repository
	collections collections.Repository
	usage       usage.Repository
	meta        metadata.Repository

	log      logging.Logger
	validate *validator.Validate
	mode     Mode
	ready    bool

	now   func() time.Time
	newID func() string

	mu    sync.RWMutex
	scope models.Identity
}

// Open opens the database at opts.Path. If that does not succeed within
// opts.InitTimeout the store falls back to an in-memory database, and when
// even that fails it runs without storage. Open never fails; problems are
// logged as warnings.
func Open(ctx context.Context, opts Options, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNop()
	}
	timeout := opts.InitTimeout
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}

	type result struct {
		db  *sql.DB
		err error
	}
	ch := make(chan result, 1)
	go func() {
		db, err := openFile(ctx, opts.Path)
		ch <- result{db: db, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err == nil {
			return newStore(r.db, ModePersistent, log)
		}
		log.Warn(ctx, "local database unavailable, falling back to memory", "path", opts.Path, "error", r.err)
	case <-timer.C:
		log.Warn(ctx, "local database init timed out, falling back to memory", "path", opts.Path, "timeout", timeout)
		go func() {
			if r := <-ch; r.db != nil {
				_ = r.db.Close()
			}
		}()
	}

	db, err := openMemory(ctx)
	if err != nil {
		log.Warn(ctx, "in-memory database unavailable, records will not be saved", "error", err)
		return newStore(nil, ModeUnavailable, log)
	}
	return newStore(db, ModeMemory, log)
}

// NewWithDB wraps an already migrated database.
func NewWithDB(db *sql.DB, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNop()
	}
	return newStore(db, ModePersistent, log)
}

func newStore(db *sql.DB, mode Mode, log logging.Logger) *Store {
	s := &Store{
		db:       db,
		log:      log.With("component", "store"),
		validate: validator.New(),
		mode:     mode,
		ready:    true,
		now:      timex.Now,
		newID:    uuid.NewString,
	}
	if db != nil {
		s.prompts = prompts.NewSQLiteRepository(db)
		s.collections = collections.NewSQLiteRepository(db)
		s.usage = usage.NewSQLiteRepository(db)
		s.meta = metadata.NewSQLiteRepository(db)
	}
	return s
}

func (s *Store) Mode() Mode {
	if s == nil {
		return ModeUnavailable
	}
	return s.mode
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetOwnerScope changes the owner every later call works on. No data moves.
func (s *Store) SetOwnerScope(id models.Identity) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.scope = id
	s.mu.Unlock()
}

func (s *Store) Scope() models.Identity {
	if s == nil {
		return models.Anonymous()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

func (s *Store) owner() string {
	return s.Scope().OwnerKey()
}

// check reports misuse of a store that was never opened.
func (s *Store) check() error {
	if s == nil || !s.ready {
		return common.ErrNotInitialized
	}
	return nil
}

func (s *Store) available() bool {
	return s.db != nil
}

func (s *Store) validateInput(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}
