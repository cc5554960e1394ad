package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
)

// SnapshotStore holds the snapshot used by runs started from the API.
// Each run copies it once, so a replacement only affects later runs.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap config.Snapshot
	path string // persisted here on replace when set
}

// NewSnapshotStore creates a store seeded with snap.
func NewSnapshotStore(snap config.Snapshot, path string) *SnapshotStore {
	return &SnapshotStore{snap: snap, path: path}
}

// Get returns a copy of the current snapshot.
func (s *SnapshotStore) Get() config.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Replace validates snap and makes it current.
func (s *SnapshotStore) Replace(snap config.Snapshot) (config.Snapshot, error) {
	if snap.Version == 0 {
		snap.Version = config.SnapshotVersion
	}
	if err := snap.Validate(); err != nil {
		return config.Snapshot{}, err
	}
	snap = snap.Capture(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if err := snap.Save(s.path); err != nil {
			return config.Snapshot{}, err
		}
	}
	s.snap = snap
	return snap, nil
}

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config    *config.Config
	snapshots *SnapshotStore
	logger    *slog.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, snapshots *SnapshotStore, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		config:    cfg,
		snapshots: snapshots,
		logger:    logger.With("component", "config"),
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Snapshot        config.Snapshot `json:"snapshot"`
	AllBypassed     bool            `json:"all_bypassed"`
	FaceDetector    bool            `json:"face_detector"`
	HistoryBackend  string          `json:"history_backend"`
	MinWorkers      int             `json:"min_workers"`
	MaxWorkers      int             `json:"max_workers"`
	BatchSize       int             `json:"batch_size"`
	InvalidDir      string          `json:"invalid_dir"`
	ResultLog       string          `json:"result_log"`
	SnapshotPersist bool            `json:"snapshot_persisted"`
}

// Get returns the effective configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.response(h.snapshots.Get()))
}

// Update replaces the snapshot for subsequent runs
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	snap := config.DefaultSnapshot()
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	stored, err := h.snapshots.Replace(snap)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if stored.Bypass.All() {
		h.logger.Warn("every check is bypassed, all images will pass")
	}
	respondJSON(w, http.StatusOK, h.response(stored))
}

func (h *ConfigHandler) response(snap config.Snapshot) ConfigResponse {
	return ConfigResponse{
		Snapshot:        snap,
		AllBypassed:     snap.Bypass.All(),
		FaceDetector:    h.config.FaceDetector.URL != "",
		HistoryBackend:  database.BackendName(),
		MinWorkers:      h.config.Workers.Min,
		MaxWorkers:      h.config.Workers.Max,
		BatchSize:       h.config.Workers.BatchSize,
		InvalidDir:      h.config.Validation.InvalidDir,
		ResultLog:       h.config.Validation.ResultLog,
		SnapshotPersist: h.snapshots.path != "",
	}
}
