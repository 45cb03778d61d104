package store

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollections_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreate(t, s, "member")
	root, err := s.CreateCollection(ctx, models.CollectionInput{Name: "Root"})
	require.NoError(t, err)
	child, err := s.CreateCollection(ctx, models.CollectionInput{Name: "Child", ParentID: &root.ID})
	require.NoError(t, err)

	_, err = s.CreateCollection(ctx, models.CollectionInput{Name: "Orphan", ParentID: ptr("missing")})
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.CreateCollection(ctx, models.CollectionInput{Name: ""})
	require.ErrorIs(t, err, common.ErrValidation)

	c, err := s.AddToCollection(ctx, child.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, c.PromptIDs)

	c, err = s.AddToCollection(ctx, child.ID, p.ID)
	require.NoError(t, err)
	assert.Len(t, c.PromptIDs, 1)

	_, err = s.AddToCollection(ctx, child.ID, "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)

	c, err = s.RenameCollection(ctx, child.ID, "Kid")
	require.NoError(t, err)
	assert.Equal(t, "Kid", c.Name)

	c, err = s.RemoveFromCollection(ctx, child.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, c.PromptIDs)

	require.NoError(t, s.DeleteCollection(ctx, root.ID))
	list, err := s.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Kid", list[0].Name)

	s.SetOwnerScope(models.Authenticated("other"))
	list, err = s.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = s.RenameCollection(ctx, child.ID, "stolen")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUsage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreate(t, s, "used")
	require.NoError(t, s.RecordUsage(ctx, p.ID, models.UsageCopy))
	require.NoError(t, s.RecordUsage(ctx, p.ID, models.UsageRun))
	require.ErrorIs(t, s.RecordUsage(ctx, "ghost", models.UsageCopy), common.ErrorNotFound)

	events, err := s.RecentUsage(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.UsageRun, events[0].Action)
}

func TestSettingsAndTheme(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SaveSettings(ctx, map[string]any{"editor": "vim"}))
	got, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "vim", got["editor"])

	s.SetOwnerScope(models.Authenticated("u1"))
	other, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.SetTheme(ctx, "dark"))
	s.SetOwnerScope(models.Anonymous())
	theme, err := s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
}
