package syncer

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func rec(id string, updated time.Time, deleted bool) *models.Prompt {
	p := &models.Prompt{ID: id, OwnerID: "u1", Title: id, CreatedAt: t0, UpdatedAt: updated}
	if deleted {
		d := updated
		p.DeletedAt = &d
	}
	return p
}

func TestDecide(t *testing.T) {
	later := t0.Add(time.Minute)

	tests := []struct {
		name   string
		local  *models.Prompt
		remote *models.Prompt
		want   Action
	}{
		{"local only", rec("a", t0, false), nil, Upload},
		{"local only tombstone", rec("a", t0, true), nil, Upload},
		{"remote only active", nil, rec("a", t0, false), Download},
		{"remote only tombstone", nil, rec("a", t0, true), Ignore},
		{"remote tombstone beats newer local edit", rec("a", later, false), rec("a", t0, true), Download},
		{"local tombstone beats newer remote edit", rec("a", t0, true), rec("a", later, false), Upload},
		{"both tombstoned", rec("a", t0, true), rec("a", later, true), Noop},
		{"local newer", rec("a", later, false), rec("a", t0, false), Upload},
		{"remote newer", rec("a", t0, false), rec("a", later, false), Download},
		{"tie", rec("a", t0, false), rec("a", t0, false), Noop},
		{"nothing", nil, nil, Noop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.local, tt.remote))
		})
	}
}

func TestBuildPlan_ExclusiveAndExhaustive(t *testing.T) {
	later := t0.Add(time.Hour)
	local := []models.Prompt{
		*rec("both-local-newer", later, false),
		*rec("both-tie", t0, false),
		*rec("local-only", t0, false),
		*rec("remote-deleted", later, false),
	}
	remote := []models.Prompt{
		*rec("both-local-newer", t0, false),
		*rec("both-tie", t0, false),
		*rec("remote-only", t0, false),
		*rec("remote-only-dead", t0, true),
		*rec("remote-deleted", t0, true),
	}

	plan := BuildPlan(local, remote, nil)

	var up, down []string
	for _, p := range plan.Uploads {
		up = append(up, p.ID)
	}
	for _, p := range plan.Downloads {
		down = append(down, p.ID)
	}
	assert.Equal(t, []string{"both-local-newer", "local-only"}, up)
	assert.Equal(t, []string{"remote-deleted", "remote-only"}, down)
	assert.Equal(t, 1, plan.Unchanged)
	assert.Equal(t, 1, plan.Ignored)
	assert.Equal(t, 6, len(up)+len(down)+plan.Unchanged+plan.Ignored)
}

func TestBuildPlan_CopiesRows(t *testing.T) {
	local := []models.Prompt{{ID: "a", Tags: []string{"x"}, UpdatedAt: t0}}
	plan := BuildPlan(local, nil, nil)

	plan.Uploads[0].Tags[0] = "changed"
	assert.Equal(t, "x", local[0].Tags[0])
	assert.False(t, plan.Empty())
	assert.True(t, BuildPlan(nil, nil, nil).Empty())
}

func TestBuildPlan_SinceSkipsPushedLocalRows(t *testing.T) {
	since := t0.Add(time.Minute)
	local := []models.Prompt{
		*rec("old", t0, false),
		*rec("edited", t0.Add(2*time.Minute), false),
		*rec("old-but-remote-changed", t0, false),
	}
	remote := []models.Prompt{*rec("old-but-remote-changed", t0.Add(3*time.Minute), false)}

	plan := BuildPlan(local, remote, &since)

	require.Len(t, plan.Uploads, 1)
	assert.Equal(t, "edited", plan.Uploads[0].ID)
	require.Len(t, plan.Downloads, 1)
	assert.Equal(t, "old-but-remote-changed", plan.Downloads[0].ID)
	assert.Equal(t, 1, plan.Unchanged)
}
