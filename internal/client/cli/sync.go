package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
)

// Sync runs one pass now.
func (a *App) Sync(ctx context.Context) error {
	if a.engine == nil {
		fmt.Fprintln(a.out, "Sync is off: no remote backend configured")
		return common.ErrNotConfigured
	}
	res := a.engine.Sync(ctx)
	switch {
	case res.Skipped:
		fmt.Fprintln(a.out, "A sync is already running")
		return nil
	case errors.Is(res.Err, common.ErrSyncNotAuthorized):
		fmt.Fprintln(a.out, "Log in to sync")
		return res.Err
	case res.Err != nil:
		fmt.Fprintf(a.out, "Sync failed: %v\n", res.Err)
		return res.Err
	}
	fmt.Fprintf(a.out, "Synced: %d up, %d down, %d unchanged\n", res.Uploaded, res.Downloaded, res.Unchanged)
	return nil
}

// Status prints identity, storage and sync state.
func (a *App) Status(ctx context.Context) error {
	st := a.ident.State()
	fmt.Fprintf(a.out, "identity: %s\n", st.Identity)
	fmt.Fprintf(a.out, "storage:  %s\n", a.local.Mode())
	if a.engine == nil {
		fmt.Fprintln(a.out, "sync:     not configured")
		return nil
	}
	ss := a.engine.Status()
	last := "never"
	if ss.LastSyncAt != nil {
		last = timex.Format(*ss.LastSyncAt)
	} else if cur, err := a.local.LastSyncAt(ctx); err == nil && cur != nil {
		last = timex.Format(*cur)
	}
	fmt.Fprintf(a.out, "sync:     running=%t online=%t last=%s\n", a.engine.Running(), ss.Online, last)
	if ss.LastError != "" {
		fmt.Fprintf(a.out, "error:    %s\n", ss.LastError)
	}
	return nil
}
