package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/identity"
	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/remote/memstore"
	"github.com/dmitrijs2005/promptkeeper/internal/client/syncer"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_GuestStartIsSeeded(t *testing.T) {
	local := newLocal(t)
	ident := identity.New(identity.State{})
	runner := &fakeRunner{}
	s := NewSession(ident, local, runner, NewMigrationService(local, nil), NewSeedService(local, nil, nil), nil)
	s.Attach(context.Background())
	defer s.Close()

	assert.Equal(t, models.Anonymous(), s.Current())
	all, err := local.GetAll(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultCatalog))
	assert.Empty(t, runner.Events(), "no sync for the guest")
}

func TestSession_IgnoresLoading(t *testing.T) {
	local := newLocal(t)
	ident := identity.New(identity.State{Loading: true})
	runner := &fakeRunner{}
	s := NewSession(ident, local, runner, NewMigrationService(local, nil), nil, nil)
	s.Attach(context.Background())
	defer s.Close()

	ident.Set(identity.State{Identity: models.Authenticated("u1"), Loading: true})
	assert.Empty(t, runner.Events())

	ident.SetLoading(false)
	assert.Equal(t, []string{"start"}, runner.Events())
	assert.Equal(t, models.Authenticated("u1"), local.Scope())
}

func TestSession_FirstIdentityAdoptsGuestRows(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	g := createAs(t, local, models.Anonymous(), "written before the backend existed")

	ident := identity.New(identity.State{Loading: true})
	runner := &fakeRunner{}
	s := NewSession(ident, local, runner, NewMigrationService(local, nil), nil, nil)
	s.Attach(ctx)
	defer s.Close()

	ident.Set(identity.State{Identity: models.Authenticated("u1"), SetupComplete: true})

	assert.Equal(t, models.Authenticated("u1"), local.Scope())
	got, err := local.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)
	left, err := local.CountOwned(ctx, models.Anonymous(), true)
	require.NoError(t, err)
	assert.Zero(t, left)
	assert.Equal(t, []string{"start"}, runner.Events())
}

func TestSession_Transitions(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	ident := identity.New(identity.State{})
	runner := &fakeRunner{}
	s := NewSession(ident, local, runner, NewMigrationService(local, nil), nil, nil)
	s.Attach(ctx)

	g := createAs(t, local, models.Anonymous(), "guest note")

	ident.SetIdentity(models.Authenticated("u1"), false)
	assert.Equal(t, models.Authenticated("u1"), local.Scope())
	got, err := local.GetByID(ctx, g.ID)
	require.NoError(t, err, "guest data follows the sign in")
	assert.Equal(t, "u1", got.OwnerID)

	require.NoError(t, local.SetLastSyncAt(ctx, timex.Now()))

	ident.SetIdentity(models.Authenticated("u1"), true)
	assert.Equal(t, []string{"start"}, runner.Events(), "setup flag change is not a transition")

	ident.SetIdentity(models.Authenticated("u2"), false)
	assert.Equal(t, []string{"start", "stop", "start"}, runner.Events())
	cursor, err := local.LastSyncAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, cursor, "cursor of u1 must not be used for u2")
	n, err := local.CountOwned(ctx, models.Authenticated("u2"), true)
	require.NoError(t, err)
	assert.Zero(t, n, "no migration between accounts")

	ident.SignOut()
	assert.Equal(t, []string{"start", "stop", "start", "stop"}, runner.Events())
	assert.True(t, local.Scope().IsAnonymous())

	s.Close()
	assert.Equal(t, []string{"start", "stop", "start", "stop", "stop"}, runner.Events())
	ident.SetIdentity(models.Authenticated("u3"), false)
	assert.Len(t, runner.Events(), 5, "closed session ignores changes")
}

func TestSession_SameAccountKeepsCursor(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	ident := identity.New(identity.State{})
	s := NewSession(ident, local, &fakeRunner{}, NewMigrationService(local, nil), nil, nil)
	s.Attach(ctx)
	defer s.Close()

	ident.SetIdentity(models.Authenticated("u1"), false)
	at := timex.Now()
	require.NoError(t, local.SetLastSyncAt(ctx, at))

	ident.SignOut()
	ident.SetIdentity(models.Authenticated("u1"), false)

	cursor, err := local.LastSyncAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.True(t, cursor.Equal(at))
}

// Guest works offline, signs up, syncs, deletes one record and syncs again.
func TestSession_GuestToUserEndToEnd(t *testing.T) {
	ctx := context.Background()
	testStart := timex.Now()
	local := newLocal(t)
	mem := memstore.New()
	ident := identity.New(identity.State{})
	engine := syncer.New(local, mem, syncer.Config{Interval: time.Hour}, nil)
	seed := NewSeedService(local, mem, nil, WithCatalog(nil))
	s := NewSession(ident, local, engine, NewMigrationService(local, nil), seed, nil)
	s.Attach(ctx)
	defer s.Close()

	g1 := createAs(t, local, models.Anonymous(), "g1")
	g2 := createAs(t, local, models.Anonymous(), "g2")
	g3 := createAs(t, local, models.Anonymous(), "g3")

	ident.SetIdentity(models.Authenticated("u1"), false)

	require.Eventually(t, func() bool {
		cursor, err := local.LastSyncAt(ctx)
		return err == nil && cursor != nil && !engine.Status().Syncing
	}, 5*time.Second, 10*time.Millisecond)

	for _, p := range []*models.Prompt{g1, g2, g3} {
		r, ok := mem.Prompt(p.ID)
		require.True(t, ok, p.Title)
		assert.Equal(t, "u1", r.OwnerID)
		assert.Nil(t, r.DeletedAt)
	}
	assert.Equal(t, 3, mem.Len())
	cursor, err := local.LastSyncAt(ctx)
	require.NoError(t, err)
	assert.False(t, cursor.Before(testStart))

	before1, _ := mem.Prompt(g1.ID)
	before3, _ := mem.Prompt(g3.ID)
	require.NoError(t, local.SoftDelete(ctx, g2.ID))
	mem.ResetCalls()

	var res syncer.Result
	require.Eventually(t, func() bool {
		res = engine.Sync(ctx)
		return !res.Skipped
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, res.Err)

	uploads := mem.Calls(memstore.OpUpsert)
	require.Len(t, uploads, 1)
	assert.Equal(t, g2.ID, uploads[0].ID)

	r2, _ := mem.Prompt(g2.ID)
	assert.NotNil(t, r2.DeletedAt)
	after1, _ := mem.Prompt(g1.ID)
	after3, _ := mem.Prompt(g3.ID)
	assert.Equal(t, before1, after1)
	assert.Equal(t, before3, after3)
}
