package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/mudler/xlog"

	"github.com/jmccallister93/Daily-Digits/internal/decay"
	"github.com/jmccallister93/Daily-Digits/internal/store"
)

type decayView struct {
	decay.Setting
	NextDue     *time.Time `json:"nextDue,omitempty"`
	RemainingMs *int64     `json:"remainingMs,omitempty"`
}

func (s *Server) viewOf(set decay.Setting) decayView {
	v := decayView{Setting: set}
	if left, ok := s.decay.GetTimeUntilNextDecay(set.CategoryID, set.StatName); ok {
		due := set.NextDue()
		ms := left.Milliseconds()
		v.NextDue = &due
		v.RemainingMs = &ms
	}
	return v
}

func (s *Server) handleListDecay(w http.ResponseWriter, r *http.Request) {
	settings := s.decay.Settings()
	out := make([]decayView, 0, len(settings))
	for _, set := range settings {
		out = append(out, s.viewOf(set))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDecay(w http.ResponseWriter, r *http.Request) {
	set, ok := s.decay.GetDecaySettingForStat(pathParam(r, "categoryID"), pathParam(r, "stat"))
	if !ok {
		writeError(w, http.StatusNotFound, "decay setting not found")
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(set))
}

func (s *Server) handleAddDecay(w http.ResponseWriter, r *http.Request) {
	var req decay.NewSetting
	if !decodeJSON(w, r, &req) {
		return
	}
	set, err := s.decay.AddDecaySetting(req)
	if err != nil {
		writeDecayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.viewOf(set))
}

func (s *Server) handleUpdateDecay(w http.ResponseWriter, r *http.Request) {
	var req decay.SettingUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	set, err := s.decay.UpdateDecaySetting(pathParam(r, "categoryID"), pathParam(r, "stat"), req)
	if err != nil {
		writeDecayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(set))
}

func (s *Server) handleRemoveDecay(w http.ResponseWriter, r *http.Request) {
	if !s.decay.RemoveDecaySetting(pathParam(r, "categoryID"), pathParam(r, "stat")) {
		writeError(w, http.StatusNotFound, "decay setting not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	res := s.decay.ReconcileNow()
	if res.Applied == nil {
		res.Applied = []decay.Applied{}
	}
	if res.Pruned == nil {
		res.Pruned = []string{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDecayHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 50)
	if !ok {
		return
	}
	events, err := s.db.RecentDecayEvents(limit)
	if err != nil {
		xlog.Error("Failed to read decay history", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []store.DecayEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func writeDecayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, decay.ErrInvalidSetting):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, decay.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
