package syncer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/remote"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
	"github.com/dmitrijs2005/promptkeeper/internal/timex"
)

const (
	DefaultInterval   = 5 * time.Minute
	DefaultCursorSkew = 5 * time.Second
)

// LocalStore is the part of the local store a sync pass needs.
type LocalStore interface {
	Scope() models.Identity
	ListForSync(ctx context.Context) ([]models.Prompt, error)
	ApplyRemote(ctx context.Context, p *models.Prompt) error
	LastSyncAt(ctx context.Context) (*time.Time, error)
	SetLastSyncAt(ctx context.Context, t time.Time) error
}

// Metrics receives one observation per pass.
type Metrics interface {
	ObserveSync(duration time.Duration, uploaded, downloaded, failed int, err error)
	SyncSkipped()
}

type nopMetrics struct{}

func (nopMetrics) ObserveSync(time.Duration, int, int, int, error) {}
func (nopMetrics) SyncSkipped()                                    {}

type Config struct {
	// Interval between timer-driven passes.
	Interval time.Duration
	// CursorSkew is subtracted from the cursor before the delta fetch to
	// tolerate clock drift between devices and the backend.
	CursorSkew time.Duration
}

// Result describes one call to Sync.
type Result struct {
	// Skipped is set when another pass was already running.
	Skipped    bool
	Uploaded   int
	Downloaded int
	Unchanged  int
	Failed     int
	Err        error
}

// Engine runs sync passes. At most one pass runs at a time; a trigger that
// arrives meanwhile is dropped.
type Engine struct {
	local   LocalStore
	remote  remote.Store
	log     logging.Logger
	metrics Metrics
	now     func() time.Time
	skew    time.Duration

	running atomic.Bool

	mu       sync.Mutex
	status   models.SyncStatus
	subs     map[int]func(models.SyncStatus)
	nextSub  int
	interval time.Duration
	resetCh  chan time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

type Option func(*Engine)

func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine. remote may be nil when no backend is configured;
// every pass then fails its guard.
func New(local LocalStore, rs remote.Store, cfg Config, log logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CursorSkew < 0 {
		cfg.CursorSkew = 0
	}
	e := &Engine{
		local:    local,
		remote:   rs,
		log:      log.With("component", "syncer"),
		metrics:  nopMetrics{},
		now:      timex.Now,
		skew:     cfg.CursorSkew,
		interval: cfg.Interval,
		subs:     map[int]func(models.SyncStatus){},
		resetCh:  make(chan time.Duration, 1),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Sync runs one pass unless a guard fails or a pass is already running.
// Errors are reported in the Result and the status, the cursor only moves
// on full success.
func (e *Engine) Sync(ctx context.Context) Result {
	if e.remote == nil {
		return Result{Err: common.ErrNotConfigured}
	}
	scope := e.local.Scope()
	if !scope.IsAuthenticated() {
		return Result{Err: common.ErrSyncNotAuthorized}
	}
	if !e.running.CompareAndSwap(false, true) {
		e.metrics.SyncSkipped()
		return Result{Skipped: true}
	}
	defer e.running.Store(false)

	e.updateStatus(func(s *models.SyncStatus) { s.Syncing = true })
	started := time.Now()

	res := e.pass(ctx, scope.OwnerKey())

	e.metrics.ObserveSync(time.Since(started), res.Uploaded, res.Downloaded, res.Failed, res.Err)
	e.updateStatus(func(s *models.SyncStatus) {
		s.Syncing = false
		if res.Err != nil {
			s.LastError = res.Err.Error()
			if errors.Is(res.Err, common.ErrRemoteUnavailable) {
				s.Online = false
			}
			return
		}
		s.LastError = ""
		s.Online = true
	})
	return res
}

func (e *Engine) pass(ctx context.Context, owner string) Result {
	var res Result
	log := e.log.With("owner", owner)
	// The new cursor is taken before anything is read, so rows changed
	// while the pass runs are picked up by the next one.
	started := e.now()

	cursor, err := e.local.LastSyncAt(ctx)
	if err != nil {
		res.Err = fmt.Errorf("read sync cursor: %w", err)
		log.Error(ctx, "sync failed", "error", res.Err)
		return res
	}
	var since *time.Time
	if cursor != nil {
		s := cursor.Add(-e.skew)
		since = &s
	}

	remoteRows, err := e.remote.FetchUpdated(ctx, owner, since)
	if err != nil {
		res.Err = fmt.Errorf("fetch remote changes: %w", err)
		log.Warn(ctx, "sync failed", "error", res.Err)
		return res
	}
	localRows, err := e.local.ListForSync(ctx)
	if err != nil {
		res.Err = fmt.Errorf("load local records: %w", err)
		log.Error(ctx, "sync failed", "error", res.Err)
		return res
	}
	if e.local.Scope().OwnerKey() != owner {
		res.Err = errors.New("owner scope changed during sync")
		log.Warn(ctx, "sync aborted", "error", res.Err)
		return res
	}

	plan := BuildPlan(localRows, remoteRows, since)
	res.Unchanged = plan.Unchanged

	for i := range plan.Downloads {
		p := &plan.Downloads[i]
		if err := e.local.ApplyRemote(ctx, p); err != nil {
			res.Failed++
			log.Warn(ctx, "download failed", "id", p.ID, "error", err)
			continue
		}
		res.Downloaded++
	}
	for i := range plan.Uploads {
		p := &plan.Uploads[i]
		p.OwnerID = owner
		if err := e.remote.UpsertPrompt(ctx, p); err != nil {
			res.Failed++
			log.Warn(ctx, "upload failed", "id", p.ID, "error", err)
			continue
		}
		res.Uploaded++
	}

	if res.Failed > 0 {
		res.Err = fmt.Errorf("%d of %d writes failed", res.Failed, len(plan.Uploads)+len(plan.Downloads))
		log.Warn(ctx, "sync incomplete, cursor kept", "uploaded", res.Uploaded, "downloaded", res.Downloaded, "failed", res.Failed)
		return res
	}

	if err := e.local.SetLastSyncAt(ctx, started); err != nil {
		res.Err = fmt.Errorf("save sync cursor: %w", err)
		log.Error(ctx, "sync failed", "error", res.Err)
		return res
	}
	e.updateStatus(func(s *models.SyncStatus) { s.LastSyncAt = &started })
	log.Info(ctx, "sync finished", "uploaded", res.Uploaded, "downloaded", res.Downloaded, "unchanged", res.Unchanged)
	return res
}

// Start runs a pass now and then every interval until Stop or ctx ends.
// Starting a running engine does nothing.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	done := make(chan struct{})
	e.done = done
	interval := e.interval
	e.mu.Unlock()

	// A pass that has started is not cancelled by Stop.
	passCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		e.Sync(passCtx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-e.resetCh:
				ticker.Reset(d)
			case <-ticker.C:
				e.Sync(passCtx)
			}
		}
	}()
}

// Stop ends the timer loop and waits for a pass in progress to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the timer loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// SetInterval changes the timer period, also of a running loop.
func (e *Engine) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	e.interval = d
	e.mu.Unlock()

	select {
	case e.resetCh <- d:
	default:
		select {
		case <-e.resetCh:
		default:
		}
		e.resetCh <- d
	}
}

// NotifyOnline records that the network is back and syncs right away.
func (e *Engine) NotifyOnline(ctx context.Context) Result {
	e.updateStatus(func(s *models.SyncStatus) { s.Online = true })
	return e.Sync(ctx)
}

// WatchConnectivity pings the remote every interval and calls NotifyOnline
// when it becomes reachable again. It returns when ctx ends.
func (e *Engine) WatchConnectivity(ctx context.Context, interval time.Duration) {
	if e.remote == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	online := e.Status().Online
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := e.remote.Ping(ctx)
		switch {
		case err == nil && !online:
			online = true
			e.log.Info(ctx, "remote reachable")
			e.NotifyOnline(ctx)
		case err != nil && online:
			online = false
			e.log.Warn(ctx, "remote unreachable", "error", err)
			e.updateStatus(func(s *models.SyncStatus) { s.Online = false })
		}
	}
}

func (e *Engine) Status() models.SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Subscribe calls fn with the current status and after every change.
func (e *Engine) Subscribe(fn func(models.SyncStatus)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	cur := e.status
	e.mu.Unlock()

	fn(cur)
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Engine) updateStatus(change func(*models.SyncStatus)) {
	e.mu.Lock()
	prev := e.status
	change(&e.status)
	cur := e.status
	if statusEqual(prev, cur) {
		e.mu.Unlock()
		return
	}
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	subs := make([]func(models.SyncStatus), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, e.subs[id])
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(cur)
	}
}

func statusEqual(a, b models.SyncStatus) bool {
	if a.Syncing != b.Syncing || a.LastError != b.LastError || a.Online != b.Online {
		return false
	}
	switch {
	case a.LastSyncAt == nil && b.LastSyncAt == nil:
		return true
	case a.LastSyncAt == nil || b.LastSyncAt == nil:
		return false
	default:
		return a.LastSyncAt.Equal(*b.LastSyncAt)
	}
}
