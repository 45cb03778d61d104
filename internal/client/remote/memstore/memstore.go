// Package memstore is an in-memory remote store that records the calls it
// receives. Failures can be injected per operation.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
)

// Operation names used for call recording and failure injection.
const (
	OpFetch       = "fetch"
	OpUpsert      = "upsert"
	OpGetProfile  = "get_profile"
	OpSaveProfile = "save_profile"
	OpPing        = "ping"
)

// Call is one recorded invocation.
type Call struct {
	Op    string
	Owner string
	ID    string
}

type Store struct {
	mu       sync.Mutex
	prompts  map[string]models.Prompt
	profiles map[string]models.Profile
	calls    []Call
	fail     map[string]error
	failIDs  map[string]error
}

func New() *Store {
	return &Store{
		prompts:  map[string]models.Prompt{},
		profiles: map[string]models.Profile{},
		fail:     map[string]error{},
		failIDs:  map[string]error{},
	}
}

// Fail makes every later op call return err; a nil err clears it.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// FailUpsertOf makes uploads of prompt id fail with err.
func (s *Store) FailUpsertOf(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failIDs, id)
		return
	}
	s.failIDs[id] = err
}

// Put stores p directly, bypassing recording and ownership checks.
func (s *Store) Put(p models.Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[p.ID] = p.Clone()
}

// Prompt returns the stored copy of id.
func (s *Store) Prompt(id string) (models.Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prompts[id]
	return p.Clone(), ok
}

// Len is the number of stored prompts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Calls returns the recorded calls, optionally only those of op.
func (s *Store) Calls(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Store) record(c Call) error {
	s.calls = append(s.calls, c)
	return s.fail[c.Op]
}

func (s *Store) FetchUpdated(ctx context.Context, owner string, since *time.Time) ([]models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpFetch, Owner: owner}); err != nil {
		return nil, err
	}
	out := []models.Prompt{}
	for _, p := range s.prompts {
		if p.OwnerID != owner {
			continue
		}
		if since != nil && !p.UpdatedAt.After(*since) {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// UpsertPrompt rejects writes over a row of another owner, like row-level
// security would.
func (s *Store) UpsertPrompt(ctx context.Context, p *models.Prompt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpUpsert, Owner: p.OwnerID, ID: p.ID}); err != nil {
		return err
	}
	if err := s.failIDs[p.ID]; err != nil {
		return err
	}
	if cur, ok := s.prompts[p.ID]; ok && cur.OwnerID != p.OwnerID {
		return fmt.Errorf("prompt %s: %w", p.ID, common.ErrOwnershipConflict)
	}
	s.prompts[p.ID] = p.Clone()
	return nil
}

func (s *Store) GetProfile(ctx context.Context, owner string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpGetProfile, Owner: owner}); err != nil {
		return nil, err
	}
	p, ok := s.profiles[owner]
	if !ok {
		return &models.Profile{UserID: owner}, nil
	}
	return &p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpSaveProfile, Owner: p.UserID}); err != nil {
		return err
	}
	s.profiles[p.UserID] = *p
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(Call{Op: OpPing})
}
