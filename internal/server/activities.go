package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jmccallister93/Daily-Digits/internal/character"
)

// handleListActivities returns the log in insertion order. With a limit, only
// the most recent entries are returned.
func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 0)
	if !ok {
		return
	}
	log := s.chars.ActivityLog()
	if limit > 0 && limit < len(log) {
		log = log[len(log)-limit:]
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.chars.Activity(pathParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Activity string             `json:"activity"`
		Category string             `json:"category"`
		Stat     character.StatList `json:"stat"`
		Points   int                `json:"points"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Activity) == "" {
		writeError(w, http.StatusBadRequest, "activity required")
		return
	}
	req.Stat = req.Stat.Normalize()
	if len(req.Stat) == 0 {
		writeError(w, http.StatusBadRequest, "stat required")
		return
	}
	if _, ok := s.chars.Category(req.Category); !ok {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	entry := s.chars.LogActivity(req.Activity, req.Category, req.Stat, req.Points)
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleEditActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Activity *string            `json:"activity"`
		Category *string            `json:"category"`
		Stat     character.StatList `json:"stat"`
		Points   *int               `json:"points"`
		Date     *time.Time         `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Stat != nil && len(req.Stat.Normalize()) == 0 {
		writeError(w, http.StatusBadRequest, "stat must name at least one attribute")
		return
	}

	id := pathParam(r, "id")
	ok := s.chars.EditActivity(id, character.ActivityUpdate{
		Activity: req.Activity,
		Category: req.Category,
		Stat:     req.Stat,
		Points:   req.Points,
		Date:     req.Date,
	})
	if !ok {
		writeError(w, http.StatusNotFound, "activity not found")
		return
	}
	entry, _ := s.chars.Activity(id)
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	if !s.chars.DeleteActivity(pathParam(r, "id")) {
		writeError(w, http.StatusNotFound, "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
