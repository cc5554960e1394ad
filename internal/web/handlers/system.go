package handlers

import (
	"net/http"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/resources"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/workers"
)

// SystemHandler reports host capacity and load
type SystemHandler struct {
	config  *config.Config
	monitor *resources.Monitor
}

// NewSystemHandler creates a new system handler. The monitor is expected to
// be running for the lifetime of the server.
func NewSystemHandler(cfg *config.Config, monitor *resources.Monitor) *SystemHandler {
	return &SystemHandler{config: cfg, monitor: monitor}
}

// SystemResponse represents the system info response
type SystemResponse struct {
	Cores           int              `json:"cores"`
	TotalMemory     uint64           `json:"total_memory"`
	AvailableMemory uint64           `json:"available_memory"`
	Stats           *resources.Stats `json:"stats,omitempty"`
	InitialWorkers  int              `json:"initial_workers"`
	MinWorkers      int              `json:"min_workers"`
	MaxWorkers      int              `json:"max_workers"`
}

// Get returns capacity, recent utilization and the pool sizing for a new run
func (h *SystemHandler) Get(w http.ResponseWriter, r *http.Request) {
	capacity, err := h.monitor.Capacity(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read host capacity")
		return
	}

	opts := workers.Options{Min: h.config.Workers.Min, Max: h.config.Workers.Max}
	lo, hi := workers.Bounds(capacity, opts)

	resp := SystemResponse{
		Cores:           capacity.Cores,
		TotalMemory:     capacity.TotalMemory,
		AvailableMemory: capacity.AvailableMemory,
		InitialWorkers:  workers.Initial(capacity, opts),
		MinWorkers:      lo,
		MaxWorkers:      hi,
	}
	if stats, ok := h.monitor.Stats(); ok {
		resp.Stats = &stats
	}
	respondJSON(w, http.StatusOK, resp)
}
