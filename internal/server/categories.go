package server

import (
	"net/http"
	"strings"

	"github.com/jmccallister93/Daily-Digits/internal/character"
)

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.chars.Sheet().Categories,
		"isLoading":  s.chars.IsLoading(),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.chars.Sheet().List())
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := s.chars.Category(pathParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Icon        string    `json:"icon"`
		Gradient    [2]string `json:"gradient"`
		Stats       []string  `json:"stats"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	nc := character.NewCategory{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Gradient:    req.Gradient,
	}
	for _, name := range req.Stats {
		nc.Stats = append(nc.Stats, character.Attribute{Name: name})
	}
	id := s.chars.AddCategory(nc)

	c, _ := s.chars.Category(id)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Icon        *string               `json:"icon"`
		Gradient    *[2]string            `json:"gradient"`
		Stats       []character.Attribute `json:"stats"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := pathParam(r, "id")
	ok := s.chars.UpdateCategory(id, character.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Gradient:    req.Gradient,
		Stats:       req.Stats,
	})
	if !ok {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	c, _ := s.chars.Category(id)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !s.chars.DeleteCategory(pathParam(r, "id")) {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAddStat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := pathParam(r, "id")
	if _, ok := s.chars.Category(id); !ok {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if !s.chars.AddStat(id, req.Name) {
		writeError(w, http.StatusConflict, "stat already exists")
		return
	}
	c, _ := s.chars.Category(id)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleRenameStat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, stat := pathParam(r, "id"), pathParam(r, "stat")
	if !s.chars.StatExists(id, stat) {
		writeError(w, http.StatusNotFound, "stat not found")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if !s.chars.RenameStat(id, stat, req.Name) {
		writeError(w, http.StatusConflict, "stat already exists")
		return
	}
	c, _ := s.chars.Category(id)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRemoveStat(w http.ResponseWriter, r *http.Request) {
	if !s.chars.RemoveStat(pathParam(r, "id"), pathParam(r, "stat")) {
		writeError(w, http.StatusNotFound, "stat not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAdjustStat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := pathParam(r, "id")
	if !s.chars.UpdateStat(id, pathParam(r, "stat"), req.Delta) {
		writeError(w, http.StatusNotFound, "stat not found")
		return
	}
	c, _ := s.chars.Category(id)
	writeJSON(w, http.StatusOK, c)
}
