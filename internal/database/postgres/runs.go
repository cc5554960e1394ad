package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
)

// RunRepository provides PostgreSQL-backed run history
type RunRepository struct {
	pool *Pool
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(pool *Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

const runColumns = `id, directory, status, error, snapshot_version, started_at, finished_at,
	total_processed, valid_count, invalid_count, duration_seconds, items_per_second,
	workers_used, final_workers, batches, placement_errors, log_errors`

// Save stores a run, replacing an existing one with the same ID
func (r *RunRepository) Save(ctx context.Context, run database.StoredRun) error {
	query := `
		INSERT INTO validation_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at,
			total_processed = EXCLUDED.total_processed,
			valid_count = EXCLUDED.valid_count,
			invalid_count = EXCLUDED.invalid_count,
			duration_seconds = EXCLUDED.duration_seconds,
			items_per_second = EXCLUDED.items_per_second,
			workers_used = EXCLUDED.workers_used,
			final_workers = EXCLUDED.final_workers,
			batches = EXCLUDED.batches,
			placement_errors = EXCLUDED.placement_errors,
			log_errors = EXCLUDED.log_errors
	`

	_, err := r.pool.exec(ctx, query,
		run.ID, run.Directory, run.Status, run.Error, run.SnapshotVersion,
		run.StartedAt, run.FinishedAt,
		run.TotalProcessed, run.ValidCount, run.InvalidCount,
		run.DurationSeconds, run.ItemsPerSecond,
		run.WorkersUsed, run.FinalWorkers, run.Batches,
		run.PlacementErrors, run.LogErrors,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID, returns nil if not found
func (r *RunRepository) Get(ctx context.Context, id string) (*database.StoredRun, error) {
	query := `SELECT ` + runColumns + ` FROM validation_runs WHERE id = $1`

	run, err := scanRun(r.pool.queryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns runs newest first
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]database.StoredRun, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + runColumns + `
		FROM validation_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.query(ctx, query, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []database.StoredRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Count returns the total number of stored runs
func (r *RunRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.queryRow(ctx, "SELECT COUNT(*) FROM validation_runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*database.StoredRun, error) {
	var run database.StoredRun
	err := s.Scan(
		&run.ID,
		&run.Directory,
		&run.Status,
		&run.Error,
		&run.SnapshotVersion,
		&run.StartedAt,
		&run.FinishedAt,
		&run.TotalProcessed,
		&run.ValidCount,
		&run.InvalidCount,
		&run.DurationSeconds,
		&run.ItemsPerSecond,
		&run.WorkersUsed,
		&run.FinalWorkers,
		&run.Batches,
		&run.PlacementErrors,
		&run.LogErrors,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
