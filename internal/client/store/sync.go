package store

import (
	"context"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/collections"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/prompts"
	"github.com/dmitrijs2005/promptkeeper/internal/client/repositories/usage"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/dbx"
)

// ListForSync returns every prompt of the current owner, tombstones included.
func (s *Store) ListForSync(ctx context.Context) ([]models.Prompt, error) {
	return s.GetAll(ctx, true)
}

// ApplyRemote writes a downloaded prompt verbatim.
func (s *Store) ApplyRemote(ctx context.Context, p *models.Prompt) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		return common.ErrStorageUnavailable
	}
	return s.prompts.Upsert(ctx, p)
}

// InsertIfAbsent stores p unless its id exists, tombstone or not.
func (s *Store) InsertIfAbsent(ctx context.Context, p *models.Prompt) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if !s.available() {
		return false, common.ErrStorageUnavailable
	}
	return s.prompts.InsertIfAbsent(ctx, p)
}

// CountOwned counts the rows of owner regardless of the current scope.
func (s *Store) CountOwned(ctx context.Context, owner models.Identity, includeDeleted bool) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if !s.available() {
		return 0, nil
	}
	return s.prompts.Count(ctx, owner.OwnerKey(), includeDeleted)
}

// ReassignOwner moves all prompts, collections and usage events of from to
// to in one transaction and returns the number of prompts moved. Moved rows
// get a fresh updated_at.
func (s *Store) ReassignOwner(ctx context.Context, from, to models.Identity) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if !s.available() {
		return 0, nil
	}
	at := s.now()
	n, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		n, err := prompts.NewSQLiteRepository(tx).ReassignOwner(ctx, from.OwnerKey(), to.OwnerKey(), at)
		if err != nil {
			return 0, err
		}
		if _, err := collections.NewSQLiteRepository(tx).ReassignOwner(ctx, from.OwnerKey(), to.OwnerKey(), at); err != nil {
			return 0, err
		}
		if _, err := usage.NewSQLiteRepository(tx).ReassignOwner(ctx, from.OwnerKey(), to.OwnerKey()); err != nil {
			return 0, err
		}
		return n, nil
	})
	return int(n), err
}

// LastSyncAt is the sync cursor; nil before the first successful sync.
func (s *Store) LastSyncAt(ctx context.Context) (*time.Time, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if !s.available() {
		return nil, nil
	}
	return metadata.GetTime(ctx, s.meta, metadata.KeyLastSyncAt)
}

func (s *Store) SetLastSyncAt(ctx context.Context, t time.Time) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		return common.ErrStorageUnavailable
	}
	return metadata.SetTime(ctx, s.meta, metadata.KeyLastSyncAt, t)
}

// ResetSyncCursor forgets the cursor so the next sync fetches everything.
func (s *Store) ResetSyncCursor(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		return nil
	}
	return s.meta.Delete(ctx, metadata.KeyLastSyncAt)
}

// Flag reads a persisted boolean; missing flags are false.
func (s *Store) Flag(ctx context.Context, key string) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if !s.available() {
		return false, nil
	}
	return metadata.GetBool(ctx, s.meta, key)
}

func (s *Store) SetFlag(ctx context.Context, key string, on bool) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		s.log.Warn(ctx, "storage unavailable, flag not saved", "key", key)
		return nil
	}
	return metadata.SetBool(ctx, s.meta, key, on)
}

// LoadJSON decodes a metadata value into v and reports whether it existed.
func (s *Store) LoadJSON(ctx context.Context, key string, v any) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if !s.available() {
		return false, nil
	}
	return metadata.GetJSON(ctx, s.meta, key, v)
}

func (s *Store) SaveJSON(ctx context.Context, key string, v any) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		s.log.Warn(ctx, "storage unavailable, value not saved", "key", key)
		return nil
	}
	return metadata.SetJSON(ctx, s.meta, key, v)
}

func (s *Store) DeleteKey(ctx context.Context, key string) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.available() {
		return nil
	}
	return s.meta.Delete(ctx, key)
}
