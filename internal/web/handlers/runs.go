package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
)

// RunsHandler serves the run history
type RunsHandler struct {
	runs database.RunReader
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(runs database.RunReader) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// List returns stored runs, newest first
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	runs, err := h.runs.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	total, err := h.runs.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count runs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"total": total,
	})
}

// Get returns one run
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	respondJSON(w, http.StatusOK, run)
}
