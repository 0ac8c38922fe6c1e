// Package server exposes the JSON API: auth, projects, items (including the
// tree reconciliation operations), attachments, view prefs, and per-project
// SSE streams.
package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nestlist/internal/blob"
	"nestlist/internal/config"
	"nestlist/internal/store"
)

type API struct {
	store *store.Store
	blobs *blob.Store
	cfg   *config.Config
	log   *slog.Logger
	bus   *EventBus
	// rate limiting buckets per IP:key
	rlMu sync.Mutex
	rl   map[string]*rateBucket
}

func New(cfg *config.Config, st *store.Store, blobs *blob.Store, log *slog.Logger) *API {
	return &API{store: st, blobs: blobs, cfg: cfg, log: log, bus: NewEventBus(), rl: map[string]*rateBucket{}}
}

func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)

	mux.HandleFunc("POST /api/register", a.withRateLimit("register", 10, time.Minute, a.handleRegister))
	mux.HandleFunc("POST /api/login", a.withRateLimit("login", 20, time.Minute, a.handleLogin))
	mux.HandleFunc("POST /api/logout", a.handleLogout)
	mux.HandleFunc("GET /api/me", a.handleMe)

	mux.HandleFunc("GET /api/projects", a.requireAuth(a.handleListProjects))
	mux.HandleFunc("POST /api/projects", a.requireAuth(a.handleCreateProject))
	mux.HandleFunc("GET /api/projects/{id}", a.requireAuth(a.handleGetProject))
	mux.HandleFunc("PATCH /api/projects/{id}", a.requireAuth(a.handleUpdateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", a.requireAuth(a.handleDeleteProject))

	mux.HandleFunc("GET /api/projects/{id}/items", a.requireAuth(a.handleListItems))
	mux.HandleFunc("POST /api/projects/{id}/items", a.requireAuth(a.handleCreateItem))
	mux.HandleFunc("PATCH /api/items/{id}", a.requireAuth(a.handleUpdateItem))
	mux.HandleFunc("DELETE /api/items/{id}", a.requireAuth(a.handleDeleteItem))
	mux.HandleFunc("POST /api/items/{id}/toggle", a.requireAuth(a.handleToggleItem))
	mux.HandleFunc("POST /api/items/{id}/move", a.requireAuth(a.handleMoveItem))

	mux.HandleFunc("POST /api/items/{id}/attachments", a.requireAuth(a.handleUploadAttachment))
	mux.HandleFunc("POST /api/items/{id}/attachments/url", a.requireAuth(a.handleAddURLAttachment))
	mux.HandleFunc("DELETE /api/attachments/{id}", a.requireAuth(a.handleDeleteAttachment))

	mux.HandleFunc("GET /api/projects/{id}/prefs", a.requireAuth(a.handleGetPrefs))
	mux.HandleFunc("PUT /api/projects/{id}/prefs", a.requireAuth(a.handleSavePrefs))

	mux.HandleFunc("GET /api/projects/{id}/events", a.requireAuth(a.handleProjectEvents))
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, map[string]any{"ok": true})
}

// WithLogging logs every request with its status and duration.
func WithLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sw, r)
		log.Info("http", "method", r.Method, "path", r.URL.Path, "status", sw.status, "dur_ms", time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

// Flush passes through so SSE keeps working behind the logger.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
