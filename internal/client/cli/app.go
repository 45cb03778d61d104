package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/promptkeeper/internal/client/config"
	"github.com/dmitrijs2005/promptkeeper/internal/client/identity"
	"github.com/dmitrijs2005/promptkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/client/remote"
	"github.com/dmitrijs2005/promptkeeper/internal/client/remote/postgres"
	"github.com/dmitrijs2005/promptkeeper/internal/client/remote/supabase"
	"github.com/dmitrijs2005/promptkeeper/internal/client/services"
	"github.com/dmitrijs2005/promptkeeper/internal/client/store"
	"github.com/dmitrijs2005/promptkeeper/internal/client/syncer"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
)

// Deps are the collaborators of an App. Remote and Auth may be nil.
type Deps struct {
	Config  *config.Config
	Log     logging.Logger
	Store   *store.Store
	Remote  remote.Store
	Auth    services.Authenticator
	Metrics *metrics.Collector
	In      io.Reader
	Out     io.Writer
}

// App is the wired client: store, identity, sync engine and session.
type App struct {
	cfg     *config.Config
	log     logging.Logger
	local   *store.Store
	remote  remote.Store
	ident   *identity.Context
	engine  *syncer.Engine
	auth    services.AuthService
	session *services.Session
	metrics *metrics.Collector
	closers []io.Closer

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(d Deps) *App {
	if d.Log == nil {
		d.Log = logging.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewCollector()
	}
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}

	a := &App{
		cfg:     d.Config,
		log:     d.Log,
		local:   d.Store,
		remote:  d.Remote,
		ident:   identity.New(identity.State{Loading: true}),
		metrics: d.Metrics,
		reader:  bufio.NewReader(d.In),
		out:     d.Out,
	}

	var runner services.SyncRunner
	if d.Remote != nil {
		a.engine = syncer.New(d.Store, d.Remote, syncer.Config{
			Interval:   d.Config.SyncInterval,
			CursorSkew: d.Config.CursorSkew,
		}, d.Log, syncer.WithMetrics(d.Metrics))
		runner = a.engine
	}

	a.auth = services.NewAuthService(d.Auth, d.Store, a.ident, d.Log)
	a.session = services.NewSession(
		a.ident,
		d.Store,
		runner,
		services.NewMigrationService(d.Store, d.Log),
		services.NewSeedService(d.Store, d.Remote, d.Log),
		d.Log,
	)
	return a
}

// Build opens the local store and the configured remote backend.
func Build(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	local := store.Open(ctx, store.Options{Path: cfg.DatabasePath, InitTimeout: cfg.StoreInitTimeout}, log)
	d := Deps{Config: cfg, Log: log, Store: local, In: in, Out: out}
	var closers []io.Closer

	breaker := remote.DefaultBreakerConfig()
	if cfg.BreakerTimeout > 0 {
		breaker.Timeout = cfg.BreakerTimeout
	}

	switch {
	case cfg.RemoteDSN != "":
		pg, db, err := postgres.Open(ctx, cfg.RemoteDSN)
		if err != nil {
			// Local-first: keep working without the remote.
			log.Warn(ctx, "remote database unavailable, running local only", "error", err)
			break
		}
		closers = append(closers, db)
		d.Remote = remote.WithCircuitBreaker(pg, breaker, log)
	case cfg.SupabaseURL != "":
		sb, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			_ = local.Close()
			return nil, fmt.Errorf("supabase client: %w", err)
		}
		d.Remote = remote.WithCircuitBreaker(sb, breaker, log)
		d.Auth = sb
	}

	a := NewApp(d)
	a.closers = append(closers, local)
	return a, nil
}

// Start attaches the session and restores the identity.
func (a *App) Start(ctx context.Context) {
	a.session.Attach(ctx)

	if a.cfg.RemoteDSN != "" && a.cfg.RemoteUser != "" {
		a.ident.SetIdentity(models.Authenticated(a.cfg.RemoteUser), true)
		return
	}
	if _, err := a.auth.Restore(ctx); err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	}
}

// Close stops background work and releases the store and remote.
func (a *App) Close() error {
	a.session.Close()
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (a *App) isSignedIn() bool {
	return a.ident.Identity().IsAuthenticated()
}

// statusLine is shown in the REPL prompt.
func (a *App) statusLine() string {
	s := a.ident.State()
	who := "guest"
	if s.Identity.IsAuthenticated() {
		who = s.Identity.PrincipalID()
	}
	if a.engine == nil {
		return fmt.Sprintf("%s, local", who)
	}
	st := a.engine.Status()
	switch {
	case st.Syncing:
		return who + ", syncing"
	case st.LastError != "":
		return who + ", sync error"
	case !st.Online:
		return who + ", offline"
	}
	return who + ", online"
}
