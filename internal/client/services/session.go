package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/promptkeeper/internal/client/identity"
	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/store"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
)

// syncOwnerKey remembers whose data the sync cursor describes.
const syncOwnerKey = "sync_owner"

// SyncRunner is the part of the sync engine the session drives.
type SyncRunner interface {
	Start(ctx context.Context)
	Stop()
}

// Session reacts to identity changes:
//
//	guest -> user:  migrate guest data, switch scope, start sync, seed
//	start -> user:  same as guest -> user
//	user  -> guest: stop sync, switch scope, seed
//	user  -> user:  stop sync, switch scope, start sync, seed
//
// Changes while the identity is loading are ignored.
type Session struct {
	ident   *identity.Context
	local   *store.Store
	engine  SyncRunner
	migrate *MigrationService
	seed    *SeedService
	log     logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	active  bool
	current models.Identity
	unsub   func()
}

// NewSession wires the collaborators. engine may be nil when no remote
// backend is configured.
func NewSession(ident *identity.Context, local *store.Store, engine SyncRunner, migrate *MigrationService, seed *SeedService, log logging.Logger) *Session {
	if log == nil {
		log = logging.NewNop()
	}
	return &Session{
		ident:   ident,
		local:   local,
		engine:  engine,
		migrate: migrate,
		seed:    seed,
		log:     log.With("component", "session"),
	}
}

// Attach subscribes to the identity context and applies the current state.
// ctx bounds the background sync loop.
func (s *Session) Attach(ctx context.Context) {
	s.mu.Lock()
	if s.unsub != nil {
		s.mu.Unlock()
		return
	}
	s.ctx = ctx
	s.mu.Unlock()

	unsub := s.ident.Subscribe(func(_, cur identity.State) { s.apply(cur) })

	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()
}

// Close unsubscribes and stops the sync loop.
func (s *Session) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if s.engine != nil {
		s.engine.Stop()
	}
}

// Current is the identity the session last switched to.
func (s *Session) Current() models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) apply(st identity.State) {
	if st.Loading {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := st.Identity
	if s.active && next == s.current {
		return
	}
	prev, hadPrev := s.current, s.active
	ctx := s.ctx
	s.log.Info(ctx, "identity changed", "from", prev.String(), "to", next.String())

	if hadPrev && prev.IsAuthenticated() && s.engine != nil {
		s.engine.Stop()
	}

	// The first settled identity counts as coming from the guest: rows
	// written before a backend was configured are still owned by it.
	if (!hadPrev || prev.IsAnonymous()) && next.IsAuthenticated() {
		// Must run before the scope switch, or the guest rows would be
		// invisible under the new scope for a moment.
		if _, err := s.migrate.MigrateGuestData(ctx, next); err != nil {
			s.log.Error(ctx, "guest data migration failed", "error", err)
		}
	}

	if next.IsAuthenticated() {
		s.bindCursor(ctx, next)
	}
	s.local.SetOwnerScope(next)
	s.current, s.active = next, true

	if next.IsAuthenticated() && s.engine != nil {
		s.engine.Start(ctx)
	}

	if s.seed != nil {
		if _, err := s.seed.EnsureSeeded(ctx, next); err != nil {
			s.log.Warn(ctx, "seeding skipped", "identity", next.String(), "error", err)
		}
	}
}

// bindCursor drops the sync cursor when it belongs to another account, so
// the first pass for id fetches everything.
func (s *Session) bindCursor(ctx context.Context, id models.Identity) {
	var owner string
	if _, err := s.local.LoadJSON(ctx, syncOwnerKey, &owner); err != nil {
		s.log.Warn(ctx, "read sync owner", "error", err)
	}
	if owner == id.OwnerKey() {
		return
	}
	if err := s.local.ResetSyncCursor(ctx); err != nil {
		s.log.Warn(ctx, "reset sync cursor", "error", err)
	}
	if err := s.local.SaveJSON(ctx, syncOwnerKey, id.OwnerKey()); err != nil {
		s.log.Warn(ctx, "save sync owner", "error", err)
	}
}
