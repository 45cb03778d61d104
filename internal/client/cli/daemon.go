package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/promptkeeper/internal/client/config"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
)

// DaemonOptions carries what the daemon can change at runtime.
type DaemonOptions struct {
	// Watcher, when set, applies config edits without a restart.
	Watcher *config.Watcher
	// LevelVar is the live log level of the app logger.
	LevelVar *slog.LevelVar
}

func initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancel()
	}()
}

// Daemon keeps the session syncing in the background until a signal
// arrives or ctx ends.
func (a *App) Daemon(ctx context.Context, opts DaemonOptions) error {
	if a.engine == nil {
		if opts.Watcher != nil {
			_ = opts.Watcher.Close()
		}
		return common.ErrNotConfigured
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	initSignalHandler(cancel)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.engine.WatchConnectivity(ctx, a.cfg.OnlineCheckInterval)
	}()

	if a.cfg.StatusAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.serveStatus(ctx, a.cfg.StatusAddr); err != nil {
				a.log.Error(ctx, "status server failed", "error", err)
				cancel()
			}
		}()
	}

	if opts.Watcher != nil {
		opts.Watcher.OnChange(func(old, cur *config.Config) {
			a.applyConfig(ctx, old, cur, opts.LevelVar)
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts.Watcher.Run(ctx)
		}()
	}

	a.log.Info(ctx, "daemon started", "identity", a.ident.Identity().String())
	<-ctx.Done()
	wg.Wait()
	a.log.Info(context.Background(), "daemon stopped")
	return nil
}

// applyConfig takes over the settings that can change live. Backend and
// storage settings need a restart.
func (a *App) applyConfig(ctx context.Context, old, cur *config.Config, lv *slog.LevelVar) {
	if cur.SyncInterval != old.SyncInterval && a.engine != nil {
		a.engine.SetInterval(cur.SyncInterval)
		a.log.Info(ctx, "sync interval changed", "interval", cur.SyncInterval)
	}
	if lv != nil && cur.LogLevel != old.LogLevel {
		if level, err := logging.ParseLevel(cur.LogLevel); err == nil {
			lv.Set(level)
		}
	}
	if cur.DatabasePath != old.DatabasePath || cur.SupabaseURL != old.SupabaseURL ||
		cur.RemoteDSN != old.RemoteDSN || cur.StatusAddr != old.StatusAddr {
		a.log.Warn(ctx, "some config changes take effect after a restart")
	}
}
