package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/progress"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/validator"
)

// BatchesHandler starts and tracks asynchronous validation runs
type BatchesHandler struct {
	config     *config.Config
	runner     *validator.Runner
	snapshots  *SnapshotStore
	jobManager *JobManager
	runs       database.RunWriter
	logger     *slog.Logger
}

// NewBatchesHandler creates a new batches handler
func NewBatchesHandler(cfg *config.Config, runner *validator.Runner, snapshots *SnapshotStore, jm *JobManager, runs database.RunWriter, logger *slog.Logger) *BatchesHandler {
	return &BatchesHandler{
		config:     cfg,
		runner:     runner,
		snapshots:  snapshots,
		jobManager: jm,
		runs:       runs,
		logger:     logger.With("component", "batches"),
	}
}

// StartBatchRequest represents a batch start request
type StartBatchRequest struct {
	Directory string `json:"directory"`
	Workers   int    `json:"workers"`
	BatchSize int    `json:"batch_size"`
	KeepLog   bool   `json:"keep_log"`
}

// Start starts a new batch job
func (h *BatchesHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.Directory == "" {
		respondError(w, http.StatusBadRequest, "directory is required")
		return
	}
	if req.Workers < 0 || req.BatchSize < 0 {
		respondError(w, http.StatusBadRequest, "workers and batch_size must not be negative")
		return
	}
	dir := filepath.Clean(req.Directory)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		respondError(w, http.StatusNotFound, "directory not found")
		return
	}

	invalidDir, resultLog := h.config.Validation.Paths(dir)
	job, err := h.jobManager.CreateJob(dir, []string{invalidDir, resultLog}, BatchJobOptions{
		Workers:   req.Workers,
		BatchSize: req.BatchSize,
		KeepLog:   req.KeepLog,
	})
	if errors.Is(err, ErrJobActive) || errors.Is(err, ErrOutputInUse) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	// The job carries its own context, the request context ends with this handler.
	go h.runBatchJob(job)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id":    job.ID,
		"directory": job.Directory,
		"status":    string(JobStatusPending),
	})
}

// List returns every tracked job
func (h *BatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobManager.ListJobs()
	views := make([]BatchJobView, len(jobs))
	for i, job := range jobs {
		views[i] = job.View()
	}
	respondJSON(w, http.StatusOK, views)
}

// Status returns the status of a batch job
func (h *BatchesHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.lookup(w, r)
	if job == nil {
		return
	}
	respondJSON(w, http.StatusOK, job.View())
}

// Events streams job events via SSE
func (h *BatchesHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobManager.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job.(*BatchJob).View()
		},
	)
}

// Cancel cancels a batch job
func (h *BatchesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job := h.lookup(w, r)
	if job == nil {
		return
	}
	if isJobTerminal(job.GetStatus()) {
		respondError(w, http.StatusConflict, "job already finished")
		return
	}
	job.Cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

func (h *BatchesHandler) lookup(w http.ResponseWriter, r *http.Request) *BatchJob {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return nil
	}
	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return nil
	}
	return job
}

// runBatchJob runs the validation in the background
func (h *BatchesHandler) runBatchJob(job *BatchJob) {
	ctx := job.ctx
	defer job.release()
	defer h.jobManager.Finish(job)

	job.setRunning()
	job.SendEvent(JobEvent{Type: "started", Message: "Validation started"})

	opts := validator.OptionsFor(h.config, job.Directory, h.snapshots.Get())
	if job.Options.Workers > 0 {
		opts.MaxWorkers = job.Options.Workers
		opts.Adaptive = false
	}
	if job.Options.BatchSize > 0 {
		opts.BatchSize = job.Options.BatchSize
	}
	opts.KeepLog = job.Options.KeepLog
	opts.OnProgress = func(p progress.Snapshot) {
		job.setProgress(p)
		job.SendEvent(JobEvent{Type: "progress", Data: p})
	}
	opts.OnResult = func(res validator.Result) {
		job.SendEvent(JobEvent{Type: "result", Data: map[string]any{
			"name":    res.Name,
			"valid":   res.Valid,
			"reasons": res.Reasons,
		}})
	}

	summary, err := h.runner.Run(ctx, job.Directory, opts)
	if summary != nil {
		if saveErr := h.runs.Save(context.Background(), database.NewStoredRun(summary, err)); saveErr != nil {
			h.logger.Error("failed to store run", "run_id", summary.RunID, "error", saveErr)
		}
	}

	switch {
	case err != nil && ctx.Err() != nil:
		job.finish(JobStatusCancelled, summary, err.Error())
		job.SendEvent(JobEvent{Type: "cancelled", Message: "Job was cancelled", Data: summary})
	case err != nil:
		h.logger.Error("batch failed", "dir", sanitizeForLog(job.Directory), "error", err)
		job.finish(JobStatusFailed, summary, err.Error())
		job.SendEvent(JobEvent{Type: "job_error", Message: err.Error()})
	default:
		job.finish(JobStatusCompleted, summary, "")
		job.SendEvent(JobEvent{Type: "completed", Data: summary})
	}
}
