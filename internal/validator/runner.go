// Package validator runs the checks over a directory of images with an
// adaptive worker pool and places every image by its verdict.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/checks"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/placement"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/progress"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/resources"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/telemetry"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/workers"
)

// Options tune one run.
type Options struct {
	Snapshot   config.Snapshot // zero value uses the embedded defaults
	InvalidDir string          // holding directory, defaults to <dir>/invalid
	Log        *placement.Log  // failure log, defaults to <dir>/result.csv
	KeepLog    bool            // append to the log instead of truncating it first

	MinWorkers int
	MaxWorkers int  // upper bound; with Adaptive off it is the fixed pool size
	Adaptive   bool // resize the pool between batches
	BatchSize  int

	OnProgress func(progress.Snapshot) // called after every image
	OnResult   func(Result)            // called after every image is placed
}

// OptionsFor builds run options from the environment configuration. The
// adaptive pool is on unless Workers.Max pins a size.
func OptionsFor(cfg *config.Config, dir string, snap config.Snapshot) Options {
	invalidDir, resultLog := cfg.Validation.Paths(dir)
	return Options{
		Snapshot:   snap,
		InvalidDir: invalidDir,
		Log:        placement.NewLog(resultLog),
		MinWorkers: cfg.Workers.Min,
		MaxWorkers: cfg.Workers.Max,
		Adaptive:   true,
		BatchSize:  cfg.Workers.BatchSize,
	}
}

// Summary aggregates one run.
type Summary struct {
	RunID           string    `json:"run_id"`
	Directory       string    `json:"directory"`
	SnapshotVersion int       `json:"snapshot_version"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`

	TotalProcessed  int     `json:"total_processed"`
	ValidCount      int     `json:"valid_count"`
	InvalidCount    int     `json:"invalid_count"`
	DurationSeconds float64 `json:"duration_seconds"`
	ItemsPerSecond  float64 `json:"items_per_second"`

	WorkersUsed     int `json:"workers_used"`
	FinalWorkers    int `json:"final_workers"`
	Batches         int `json:"batches"`
	PlacementErrors int `json:"placement_errors"`
	LogErrors       int `json:"log_errors"`
}

// Empty reports whether the directory held no images.
func (s *Summary) Empty() bool {
	return s.TotalProcessed == 0
}

// Runner validates directories. Several directories may run concurrently;
// a run whose output locations overlap an active run is refused.
type Runner struct {
	registry *checks.Registry
	probe    resources.Probe
	logger   *slog.Logger
}

// NewRunner builds a runner. A nil probe disables resource sampling.
func NewRunner(registry *checks.Registry, probe resources.Probe, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if probe == nil {
		probe = resources.NoopProbe{}
	}
	return &Runner{
		registry: registry,
		probe:    probe,
		logger:   logger.With("component", "runner"),
	}
}

// run holds the per-run state shared by the completion loop.
type run struct {
	*Runner
	opts    Options
	snap    config.Snapshot
	summary *Summary
	writer  *placement.Writer
	tracker *progress.Tracker
	monitor *resources.Monitor
	manager *workers.Manager
	logger  *slog.Logger
}

// Run validates every image in dir. The only error before dispatch is an
// invalid input (missing directory, inconsistent snapshot, or an output
// location held by another run, ErrOutputInUse); once
// dispatch starts, failures are per image and end up in the summary. A
// cancelled context stops the run at the next batch boundary.
func (r *Runner) Run(ctx context.Context, dir string, opts Options) (*Summary, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &Error{Kind: KindInput, Op: "open", Path: dir, Err: ErrDirectoryNotFound}
	}

	snap := opts.Snapshot
	if snap.Version == 0 {
		snap = config.DefaultSnapshot()
	}
	if err := snap.Validate(); err != nil {
		return nil, &Error{Kind: KindInput, Op: "snapshot", Err: err}
	}

	names, err := placement.ListImages(dir)
	if err != nil {
		return nil, &Error{Kind: KindInput, Op: "list", Path: dir, Err: err}
	}

	summary := &Summary{
		RunID:           uuid.NewString(),
		Directory:       dir,
		SnapshotVersion: snap.Version,
		StartedAt:       time.Now(),
	}
	logger := r.logger.With("run_id", summary.RunID)

	if len(names) == 0 {
		logger.Info("no images found", "dir", dir)
		summary.FinishedAt = time.Now()
		return summary, nil
	}

	log := opts.Log
	if log == nil {
		log = placement.NewLog(filepath.Join(dir, constants.DefaultResultLog))
	}
	invalidDir := opts.InvalidDir
	if invalidDir == "" {
		invalidDir = filepath.Join(dir, constants.DefaultInvalidDir)
	}
	release, err := claimOutputs(summary.RunID, dir, invalidDir, log.Path())
	if err != nil {
		return nil, err
	}
	defer release()

	if !opts.KeepLog {
		if err := log.Clear(); err != nil {
			summary.LogErrors++
			logger.Error("failed to reset result log", "error", err)
		}
	}

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}

	capacity, err := r.probe.Capacity(ctx)
	if err != nil {
		logger.Warn("host capacity unavailable", "error", err)
	}

	rs := &run{
		Runner:  r,
		opts:    opts,
		snap:    snap,
		summary: summary,
		writer:  placement.NewWriter(dir, invalidDir, log, logger),
		tracker: progress.NewTracker(len(paths), constants.ProgressLogInterval),
		monitor: resources.NewMonitor(r.probe, logger),
		logger:  logger,
	}
	rs.manager = workers.NewManager(capacity, workers.Options{Min: opts.MinWorkers, Max: opts.MaxWorkers}, logger)

	rs.monitor.Start(ctx)
	defer rs.monitor.Stop()

	logger.Info("validation started",
		"dir", dir,
		"images", len(paths),
		"workers", rs.poolSize(),
		"adaptive", opts.Adaptive,
	)

	runErr := rs.dispatch(ctx, paths)

	rs.monitor.Stop()
	rs.finish()
	return summary, runErr
}

func (rs *run) poolSize() int {
	if !rs.opts.Adaptive && rs.opts.MaxWorkers > 0 {
		return rs.opts.MaxWorkers
	}
	return rs.manager.Current()
}

func (rs *run) batchSize() int {
	if rs.opts.BatchSize > 0 {
		return rs.opts.BatchSize
	}
	return constants.DefaultBatchSize
}

// dispatch processes paths in submission order, one pool per batch. The
// pool size is read at each batch boundary, so a resize takes effect on the
// next batch.
func (rs *run) dispatch(ctx context.Context, paths []string) error {
	size := rs.batchSize()
	for start := 0; start < len(paths); start += size {
		if err := ctx.Err(); err != nil {
			rs.logger.Warn("run cancelled", "remaining", len(paths)-start)
			return fmt.Errorf("validation cancelled: %w", err)
		}
		batch := paths[start:min(start+size, len(paths))]
		n := rs.poolSize()
		rs.summary.Batches++
		rs.summary.WorkersUsed = max(rs.summary.WorkersUsed, n)
		telemetry.RecordWorkers(ctx, n)
		rs.logger.Debug("batch started", "batch", rs.summary.Batches, "images", len(batch), "workers", n)

		for res := range rs.runBatch(ctx, batch, n) {
			rs.collect(ctx, res)
		}
	}
	return nil
}

// runBatch fans batch out to at most n goroutines. Results arrive in
// completion order and the channel closes after the last one.
func (rs *run) runBatch(ctx context.Context, batch []string, n int) <-chan Result {
	results := make(chan Result, len(batch))
	go func() {
		defer close(results)
		var g errgroup.Group
		g.SetLimit(n)
		for _, path := range batch {
			g.Go(func() error {
				results <- rs.process(ctx, path)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return results
}

// process validates one image. A panic here is outside the check boundary
// and turns into a processing error for this image only.
func (rs *run) process(ctx context.Context, path string) (res Result) {
	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			rs.logger.Error("image processing panicked", "path", path, "panic", v)
			res = processingError(path, v, time.Since(start))
		}
	}()
	return ValidateImage(ctx, path, rs.snap, rs.registry)
}

// collect runs on the dispatch goroutine only.
func (rs *run) collect(ctx context.Context, res Result) {
	rs.tracker.Increment(res.Valid)
	telemetry.RecordImage(ctx, res.Valid, res.Duration.Seconds())
	for _, rep := range res.Reports {
		if rep.Failed() {
			telemetry.RecordCheckFailure(ctx, rep.Check)
		}
	}

	if res.Valid {
		rs.summary.ValidCount++
		rs.place(ctx, res, rs.writer.PlaceValid)
	} else {
		rs.summary.InvalidCount++
		rs.place(ctx, res, rs.writer.PlaceInvalid)
		if _, err := rs.writer.Record(res.Name, res.Reasons); err != nil {
			rs.summary.LogErrors++
			telemetry.RecordPlacementError(ctx, string(KindLog))
			rs.logger.Error("failed to record result", "error", &Error{Kind: KindLog, Op: "append", Path: res.Name, Err: err})
		}
	}
	rs.summary.TotalProcessed++

	if rs.opts.OnResult != nil {
		rs.opts.OnResult(res)
	}
	snap := rs.tracker.Snapshot()
	if rs.opts.OnProgress != nil {
		rs.opts.OnProgress(snap)
	}
	if rs.tracker.ShouldLog() {
		rs.logger.Info("progress", "progress", snap)
		rs.adapt(snap)
	}
}

func (rs *run) place(ctx context.Context, res Result, move func(string) (placement.Status, error)) {
	status, err := move(res.Path)
	if err != nil {
		rs.summary.PlacementErrors++
		telemetry.RecordPlacementError(ctx, string(KindMove))
		rs.logger.Error("failed to place image", "error", &Error{Kind: KindMove, Op: "move", Path: res.Path, Err: err})
		return
	}
	if status != placement.Moved {
		rs.logger.Debug("image not moved", "path", res.Path, "status", status)
	}
}

// adapt feeds the manager when the monitor has samples. No samples means
// no observation, never an assumed idle host.
func (rs *run) adapt(p progress.Snapshot) {
	if !rs.opts.Adaptive {
		return
	}
	stats, ok := rs.monitor.Stats()
	if !ok {
		return
	}
	rs.manager.Observe(workers.Observation{
		CPU:    stats.CPU.Average,
		Memory: stats.Memory.Average,
		Rate:   p.Rate,
		At:     time.Now(),
	})
}

func (rs *run) finish() {
	s := rs.summary
	s.FinishedAt = time.Now()
	elapsed := s.FinishedAt.Sub(s.StartedAt)
	s.DurationSeconds = elapsed.Seconds()
	if s.DurationSeconds > 0 {
		s.ItemsPerSecond = float64(s.TotalProcessed) / s.DurationSeconds
	}
	s.FinalWorkers = rs.poolSize()

	if s.InvalidCount == 0 && s.TotalProcessed > 0 {
		if err := rs.writer.Log().AppendSummary(s.FinishedAt, s.TotalProcessed); err != nil {
			s.LogErrors++
			rs.logger.Error("failed to write summary comment", "error", err)
		}
	}

	rs.logger.Info("validation finished",
		"progress", rs.tracker.Snapshot(),
		"valid", s.ValidCount,
		"invalid", s.InvalidCount,
		"duration", elapsed.Round(time.Millisecond),
		"items_per_second", s.ItemsPerSecond,
		"workers_used", s.WorkersUsed,
		"placement_errors", s.PlacementErrors,
		"log_errors", s.LogErrors,
	)
}

// IsInputError reports whether err stopped a run before dispatch.
func IsInputError(err error) bool {
	return IsKind(err, KindInput) || errors.Is(err, ErrDirectoryNotFound)
}
