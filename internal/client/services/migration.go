package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/store"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
)

// MigrationService hands guest data over to the account the guest signed in to.
type MigrationService struct {
	local *store.Store
	log   logging.Logger
}

func NewMigrationService(local *store.Store, log logging.Logger) *MigrationService {
	if log == nil {
		log = logging.NewNop()
	}
	return &MigrationService{local: local, log: log.With("component", "migration")}
}

// MigrateGuestData moves every guest row, tombstones included, to to and
// returns the number of prompts moved. Ids are kept; updated_at is
// refreshed so the next sync uploads the rows.
//
// The guest's seeded flag moves along with the rows, since they include the
// guest's starters. The guest scope is empty afterwards and gets its flag
// cleared.
func (m *MigrationService) MigrateGuestData(ctx context.Context, to models.Identity) (int, error) {
	if !to.IsAuthenticated() {
		return 0, nil
	}
	guest := models.Anonymous()

	pending, err := m.local.CountOwned(ctx, guest, true)
	if err != nil {
		return 0, fmt.Errorf("count guest prompts: %w", err)
	}
	if pending == 0 {
		return 0, nil
	}

	n, err := m.local.ReassignOwner(ctx, guest, to)
	if err != nil {
		return 0, fmt.Errorf("migrate guest data: %w", err)
	}

	seeded, err := m.local.Flag(ctx, SeededFlagKey(guest))
	if err != nil {
		m.log.Warn(ctx, "read guest seed flag", "error", err)
	}
	if seeded {
		if err := m.local.SetFlag(ctx, SeededFlagKey(to), true); err != nil {
			m.log.Warn(ctx, "carry seed flag", "error", err)
		}
		if err := m.local.SetFlag(ctx, SeededFlagKey(guest), false); err != nil {
			m.log.Warn(ctx, "clear guest seed flag", "error", err)
		}
	}

	m.log.Info(ctx, "guest data migrated", "to", to.OwnerKey(), "prompts", n)
	return n, nil
}
