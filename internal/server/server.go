package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mudler/xlog"

	"github.com/jmccallister93/Daily-Digits/internal/character"
	"github.com/jmccallister93/Daily-Digits/internal/decay"
	"github.com/jmccallister93/Daily-Digits/internal/notify"
	"github.com/jmccallister93/Daily-Digits/internal/store"
)

// Server is the digits HTTP API server.
type Server struct {
	db      *store.DB
	chars   *character.Store
	decay   *decay.Scheduler
	feed    *notify.Feed
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server over both services. feed may be nil, in which case
// the notifications endpoint returns an empty list.
func New(db *store.DB, chars *character.Store, sched *decay.Scheduler, feed *notify.Feed, version string) *Server {
	s := &Server{
		db:      db,
		chars:   chars,
		decay:   sched,
		feed:    feed,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/sheet", s.handleSheet)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleAddCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Patch("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
			r.Post("/{id}/stats", s.handleAddStat)
			r.Patch("/{id}/stats/{stat}", s.handleRenameStat)
			r.Delete("/{id}/stats/{stat}", s.handleRemoveStat)
			r.Post("/{id}/stats/{stat}/points", s.handleAdjustStat)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", s.handleListActivities)
			r.Post("/", s.handleLogActivity)
			r.Get("/{id}", s.handleGetActivity)
			r.Patch("/{id}", s.handleEditActivity)
			r.Delete("/{id}", s.handleDeleteActivity)
		})

		r.Route("/decay", func(r chi.Router) {
			r.Get("/", s.handleListDecay)
			r.Post("/", s.handleAddDecay)
			r.Post("/reconcile", s.handleReconcile)
			r.Get("/history", s.handleDecayHistory)
			r.Get("/{categoryID}/{stat}", s.handleGetDecay)
			r.Patch("/{categoryID}/{stat}", s.handleUpdateDecay)
			r.Delete("/{categoryID}/{stat}", s.handleRemoveDecay)
		})

		r.Get("/notifications", s.handleNotifications)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"loading": s.chars.IsLoading() || s.decay.IsLoading(),
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 20)
	if !ok {
		return
	}
	out := []notify.Notification{}
	if s.feed != nil {
		out = append(out, s.feed.Recent(limit)...)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		xlog.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// pathParam returns an unescaped route parameter. chi matches against
// RawPath when the request has one, and the decoded Path otherwise.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
