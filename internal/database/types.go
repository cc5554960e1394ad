package database

import (
	"time"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/validator"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// StoredRun is one validation run as kept in the history.
type StoredRun struct {
	ID              string    `json:"id"`
	Directory       string    `json:"directory"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	SnapshotVersion int       `json:"snapshot_version"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	TotalProcessed  int       `json:"total_processed"`
	ValidCount      int       `json:"valid_count"`
	InvalidCount    int       `json:"invalid_count"`
	DurationSeconds float64   `json:"duration_seconds"`
	ItemsPerSecond  float64   `json:"items_per_second"`
	WorkersUsed     int       `json:"workers_used"`
	FinalWorkers    int       `json:"final_workers"`
	Batches         int       `json:"batches"`
	PlacementErrors int       `json:"placement_errors"`
	LogErrors       int       `json:"log_errors"`
}

// NewStoredRun converts a run summary. runErr is the error Run returned
// alongside the summary, if any.
func NewStoredRun(s *validator.Summary, runErr error) StoredRun {
	r := StoredRun{
		ID:              s.RunID,
		Directory:       s.Directory,
		Status:          StatusCompleted,
		SnapshotVersion: s.SnapshotVersion,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		TotalProcessed:  s.TotalProcessed,
		ValidCount:      s.ValidCount,
		InvalidCount:    s.InvalidCount,
		DurationSeconds: s.DurationSeconds,
		ItemsPerSecond:  s.ItemsPerSecond,
		WorkersUsed:     s.WorkersUsed,
		FinalWorkers:    s.FinalWorkers,
		Batches:         s.Batches,
		PlacementErrors: s.PlacementErrors,
		LogErrors:       s.LogErrors,
	}
	if runErr != nil {
		r.Status = StatusCancelled
		r.Error = runErr.Error()
	}
	return r
}
