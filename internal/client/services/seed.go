package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/remote"
	"github.com/dmitrijs2005/promptkeeper/internal/client/store"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
)

// SeededFlagKey is the local flag recording that id received the catalog.
func SeededFlagKey(id models.Identity) string {
	return "seeded:" + id.OwnerKey()
}

// SeedService populates a new identity with the starter catalog once.
//
// The guest's "already seeded" flag lives in the local store. For a signed-in
// user the flag is the remote profile's has_seeded, so it holds across
// devices; a local copy only short-circuits the remote lookup.
type SeedService struct {
	local   *store.Store
	remote  remote.Store
	catalog []Starter
	log     logging.Logger
	now     func() time.Time
}

type SeedOption func(*SeedService)

// WithCatalog replaces DefaultCatalog.
func WithCatalog(c []Starter) SeedOption {
	return func(s *SeedService) { s.catalog = c }
}

func NewSeedService(local *store.Store, rs remote.Store, log logging.Logger, opts ...SeedOption) *SeedService {
	if log == nil {
		log = logging.NewNop()
	}
	s := &SeedService{
		local:   local,
		remote:  rs,
		catalog: DefaultCatalog,
		log:     log.With("component", "seed"),
		now:     timex.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnsureSeeded inserts the catalog for id unless it was seeded before and
// reports whether anything was inserted. For a signed-in user it never
// seeds without reading the remote flag first.
func (s *SeedService) EnsureSeeded(ctx context.Context, id models.Identity) (bool, error) {
	if id.IsAnonymous() {
		return s.seedGuest(ctx, id)
	}
	return s.seedUser(ctx, id)
}

func (s *SeedService) seedGuest(ctx context.Context, id models.Identity) (bool, error) {
	key := SeededFlagKey(id)
	done, err := s.local.Flag(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read seed flag: %w", err)
	}
	if done {
		return false, nil
	}
	if _, err := s.insertLocal(ctx, id); err != nil {
		return false, err
	}
	if err := s.local.SetFlag(ctx, key, true); err != nil {
		return false, fmt.Errorf("save seed flag: %w", err)
	}
	s.log.Info(ctx, "guest seeded", "count", len(s.catalog))
	return true, nil
}

func (s *SeedService) seedUser(ctx context.Context, id models.Identity) (bool, error) {
	if s.remote == nil {
		return false, fmt.Errorf("seed %s: %w", id, common.ErrNotConfigured)
	}
	owner := id.OwnerKey()
	profile, err := s.remote.GetProfile(ctx, owner)
	if err != nil {
		return false, fmt.Errorf("read seed flag: %w", err)
	}
	if profile.HasSeeded {
		return false, s.markLocal(ctx, id)
	}

	// Data migrated from the guest already contains the guest's starters.
	migrated, err := s.local.Flag(ctx, SeededFlagKey(id))
	if err != nil {
		return false, fmt.Errorf("read seed flag: %w", err)
	}
	if migrated {
		return false, s.markRemote(ctx, profile)
	}

	rows, err := s.insertLocal(ctx, id)
	if err != nil {
		return false, err
	}
	for i := range rows {
		p := &rows[i]
		if cur, err := s.local.Get(ctx, p.ID, true); err == nil && cur.OwnerID == owner {
			p = cur
		}
		if err := s.remote.UpsertPrompt(ctx, p); err != nil {
			return false, fmt.Errorf("mirror starter %s: %w", p.ID, err)
		}
	}
	if err := s.markRemote(ctx, profile); err != nil {
		return false, err
	}
	if err := s.markLocal(ctx, id); err != nil {
		return false, err
	}
	s.log.Info(ctx, "user seeded", "owner", owner, "count", len(rows))
	return true, nil
}

func (s *SeedService) insertLocal(ctx context.Context, id models.Identity) ([]models.Prompt, error) {
	rows := catalogFor(id, s.catalog, s.now())
	for i := range rows {
		if _, err := s.local.InsertIfAbsent(ctx, &rows[i]); err != nil {
			return nil, fmt.Errorf("insert starter %q: %w", rows[i].Title, err)
		}
	}
	return rows, nil
}

func (s *SeedService) markRemote(ctx context.Context, p *models.Profile) error {
	next := *p
	next.HasSeeded = true
	if err := s.remote.SaveProfile(ctx, &next); err != nil {
		return fmt.Errorf("save seed flag: %w", err)
	}
	return nil
}

func (s *SeedService) markLocal(ctx context.Context, id models.Identity) error {
	if err := s.local.SetFlag(ctx, SeededFlagKey(id), true); err != nil {
		return fmt.Errorf("save seed flag: %w", err)
	}
	return nil
}
