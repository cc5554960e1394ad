package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/placement"
)

// ResultsHandler serves the failure log of an input directory
type ResultsHandler struct {
	config *config.Config
	logger *slog.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(cfg *config.Config, logger *slog.Logger) *ResultsHandler {
	return &ResultsHandler{config: cfg, logger: logger}
}

// ResultsResponse is one page of the failure log
type ResultsResponse struct {
	Directory string          `json:"directory"`
	Log       string          `json:"log"`
	Total     int             `json:"total"`
	Rows      []placement.Row `json:"rows"`
}

// RestoreRequest lists images to move back into the valid directory
type RestoreRequest struct {
	Names []string `json:"names"`
}

func (h *ResultsHandler) writer(dir string) *placement.Writer {
	invalidDir, resultLog := h.config.Validation.Paths(dir)
	return placement.NewWriter(dir, invalidDir, placement.NewLog(resultLog), h.logger)
}

// List returns the rows of the failure log, comments excluded
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	dir, ok := requireDirectory(w, r)
	if !ok {
		return
	}
	log := h.writer(dir).Log()
	rows, err := log.Rows()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read result log")
		return
	}

	limit, offset := pagination(r)
	total := len(rows)
	page := []placement.Row{}
	if offset < total {
		page = rows[offset:min(total, offset+limit)]
	}
	respondJSON(w, http.StatusOK, ResultsResponse{
		Directory: dir,
		Log:       log.Path(),
		Total:     total,
		Rows:      page,
	})
}

// Restore moves selected images out of the holding directory
func (h *ResultsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	dir, ok := requireDirectory(w, r)
	if !ok {
		return
	}
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Names) == 0 {
		respondError(w, http.StatusBadRequest, "names are required")
		return
	}

	report, err := h.writer(dir).Restore(req.Names)
	if err != nil {
		h.logger.Warn("restore incomplete", "dir", sanitizeForLog(dir), "error", err)
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  err.Error(),
			"report": report,
		})
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Clear truncates the failure log
func (h *ResultsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	dir, ok := requireDirectory(w, r)
	if !ok {
		return
	}
	if err := h.writer(dir).Log().Clear(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear result log")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// Archive moves the remaining rejected images to <dir>/invalid and copies
// the log next to them
func (h *ResultsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	dir, ok := requireDirectory(w, r)
	if !ok {
		return
	}
	report, err := h.writer(dir).Archive()
	if err != nil {
		h.logger.Error("archive failed", "dir", sanitizeForLog(dir), "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Export downloads a CSV report of valid and invalid images
func (h *ResultsHandler) Export(w http.ResponseWriter, r *http.Request) {
	dir, ok := requireDirectory(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(dir)+`_results.csv"`)
	if err := h.writer(dir).Export(w); err != nil {
		h.logger.Error("export failed", "dir", sanitizeForLog(dir), "error", err)
	}
}
