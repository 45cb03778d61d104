package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
)

// statusResponse is the body of GET /status.
type statusResponse struct {
	Identity      string             `json:"identity"`
	Authenticated bool               `json:"authenticated"`
	Storage       string             `json:"storage"`
	SyncEnabled   bool               `json:"sync_enabled"`
	Running       bool               `json:"running"`
	Sync          *models.SyncStatus `json:"sync,omitempty"`
}

type syncResponse struct {
	Skipped    bool   `json:"skipped"`
	Uploaded   int    `json:"uploaded"`
	Downloaded int    `json:"downloaded"`
	Unchanged  int    `json:"unchanged"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// Routes is the daemon's local HTTP surface.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", a.handleStatus)
	r.Post("/sync", a.handleSync)
	r.Handle("/metrics", a.metrics.Handler())
	return r
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	id := a.ident.Identity()
	resp := statusResponse{
		Identity:      id.String(),
		Authenticated: id.IsAuthenticated(),
		Storage:       a.local.Mode().String(),
		SyncEnabled:   a.engine != nil,
	}
	if a.engine != nil {
		st := a.engine.Status()
		resp.Sync = &st
		resp.Running = a.engine.Running()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleSync(w http.ResponseWriter, r *http.Request) {
	if a.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, syncResponse{Error: common.ErrNotConfigured.Error()})
		return
	}
	res := a.engine.Sync(r.Context())
	body := syncResponse{
		Skipped:    res.Skipped,
		Uploaded:   res.Uploaded,
		Downloaded: res.Downloaded,
		Unchanged:  res.Unchanged,
		Failed:     res.Failed,
	}
	code := http.StatusOK
	switch {
	case res.Skipped:
		code = http.StatusAccepted
	case errors.Is(res.Err, common.ErrSyncNotAuthorized):
		code = http.StatusUnauthorized
	case res.Err != nil:
		code = http.StatusBadGateway
	}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// serveStatus runs the status server on addr until ctx ends.
func (a *App) serveStatus(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: a.Routes(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		a.log.Info(context.Background(), "stopping status server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info(ctx, "starting status server", "address", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
