// Package syncer reconciles the local store with the remote store.
//
// A pass fetches the remote rows changed since the cursor, loads every local
// row of the owner (tombstones included) and decides per id which side
// wins. Deletion beats an edit; otherwise the newer updated_at wins and a
// tie moves nothing.
package syncer

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
)

// Action is the outcome of Decide for one id.
type Action int

const (
	// Noop leaves both sides alone.
	Noop Action = iota
	// Upload pushes the local row to the remote store.
	Upload
	// Download writes the remote row locally.
	Download
	// Ignore drops a remote-only tombstone.
	Ignore
)

func (a Action) String() string {
	switch a {
	case Upload:
		return "upload"
	case Download:
		return "download"
	case Ignore:
		return "ignore"
	default:
		return "noop"
	}
}

// Decide compares the two versions of one record. Either may be nil, not both.
func Decide(local, remote *models.Prompt) Action {
	switch {
	case local == nil && remote == nil:
		return Noop
	case remote == nil:
		// Absent from a delta fetch only means unchanged remotely. Upserts
		// are idempotent, so pushing again is harmless.
		return Upload
	case local == nil:
		if remote.IsDeleted() {
			return Ignore
		}
		return Download
	}

	localDeleted, remoteDeleted := local.IsDeleted(), remote.IsDeleted()
	switch {
	case localDeleted && remoteDeleted:
		return Noop
	case remoteDeleted:
		return Download
	case localDeleted:
		return Upload
	}

	switch {
	case local.UpdatedAt.After(remote.UpdatedAt):
		return Upload
	case remote.UpdatedAt.After(local.UpdatedAt):
		return Download
	default:
		return Noop
	}
}

// Plan lists the writes of one pass. No id appears in both lists.
type Plan struct {
	Uploads   []models.Prompt
	Downloads []models.Prompt
	Unchanged int
	Ignored   int
}

// Empty reports whether the plan writes nothing.
func (p Plan) Empty() bool {
	return len(p.Uploads) == 0 && len(p.Downloads) == 0
}

// BuildPlan decides every id in the union of local and remote, in id order.
// When since is set, local-only rows not modified after it were pushed by an
// earlier successful pass and are left out.
func BuildPlan(local, remote []models.Prompt, since *time.Time) Plan {
	localByID := make(map[string]*models.Prompt, len(local))
	remoteByID := make(map[string]*models.Prompt, len(remote))
	ids := make([]string, 0, len(local)+len(remote))

	for i := range local {
		p := &local[i]
		if _, seen := localByID[p.ID]; !seen {
			ids = append(ids, p.ID)
		}
		localByID[p.ID] = p
	}
	for i := range remote {
		p := &remote[i]
		if _, inLocal := localByID[p.ID]; !inLocal {
			if _, seen := remoteByID[p.ID]; !seen {
				ids = append(ids, p.ID)
			}
		}
		remoteByID[p.ID] = p
	}
	sort.Strings(ids)

	var plan Plan
	for _, id := range ids {
		l, r := localByID[id], remoteByID[id]
		if r == nil && since != nil && !l.UpdatedAt.After(*since) {
			plan.Unchanged++
			continue
		}
		switch Decide(l, r) {
		case Upload:
			plan.Uploads = append(plan.Uploads, l.Clone())
		case Download:
			plan.Downloads = append(plan.Downloads, r.Clone())
		case Ignore:
			plan.Ignored++
		default:
			plan.Unchanged++
		}
	}
	return plan
}
