package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrijs2005/promptkeeper/internal/logging"
)

const reloadDebounce = 300 * time.Millisecond

// Watcher reloads a config file when it changes on disk and hands the new
// value to the registered callbacks. Invalid files are logged and ignored.
type Watcher struct {
	path   string
	load   func() (*Config, error)
	log    logging.Logger
	fsw    *fsnotify.Watcher
	mu     sync.Mutex
	cur    *Config
	onEdit []func(old, cur *Config)
}

// NewWatcher watches path. load produces the effective config (file, env
// and flags) and is called on every change.
func NewWatcher(path string, initial *Config, load func() (*Config, error), log logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors often replace the file, so watch the directory.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	return &Watcher{
		path: filepath.Clean(path),
		load: load,
		log:  log.With("module", "config_watcher"),
		fsw:  fsw,
		cur:  initial,
	}, nil
}

// OnChange registers fn. It runs on the watcher goroutine.
func (w *Watcher) OnChange(fn func(old, cur *Config)) {
	w.mu.Lock()
	w.onEdit = append(w.onEdit, fn)
	w.mu.Unlock()
}

// Current returns the last config that loaded cleanly.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cur
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var debounce *time.Timer
	reload := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			w.Reload(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error(ctx, "file watcher error", "error", err)
		}
	}
}

// Reload loads the config once and notifies callbacks if it is valid.
func (w *Watcher) Reload(ctx context.Context) {
	next, err := w.load()
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		w.log.Error(ctx, "config reload rejected", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	old := w.cur
	w.cur = next
	callbacks := append([]func(old, cur *Config){}, w.onEdit...)
	w.mu.Unlock()

	w.log.Info(ctx, "config reloaded", "path", w.path)
	for _, fn := range callbacks {
		fn(old, next)
	}
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
