package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/promptkeeper/internal/client/localdb"
	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/store"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *store.Store {
	t.Helper()
	db, err := localdb.OpenMemory(context.Background())
	require.NoError(t, err)
	s := store.NewWithDB(db, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createAs(t *testing.T, s *store.Store, id models.Identity, title string) *models.Prompt {
	t.Helper()
	prev := s.Scope()
	s.SetOwnerScope(id)
	defer s.SetOwnerScope(prev)
	p, err := s.Create(context.Background(), models.PromptInput{Title: title})
	require.NoError(t, err)
	return p
}

// fakeRunner records Start/Stop calls.
type fakeRunner struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeRunner) Start(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "start")
}

func (f *fakeRunner) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "stop")
}

func (f *fakeRunner) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}
