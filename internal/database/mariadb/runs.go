package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
)

// RunRepository stores run history in MariaDB
type RunRepository struct {
	pool *Pool
}

// NewRunRepository creates a MariaDB run repository
func NewRunRepository(pool *Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

const runColumns = `id, directory, status, error, snapshot_version, started_at, finished_at,
	total_processed, valid_count, invalid_count, duration_seconds, items_per_second,
	workers_used, final_workers, batches, placement_errors, log_errors`

// Save inserts a run or replaces the stored one with the same ID
func (r *RunRepository) Save(ctx context.Context, run database.StoredRun) error {
	query := `INSERT INTO validation_runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			error = VALUES(error),
			finished_at = VALUES(finished_at),
			total_processed = VALUES(total_processed),
			valid_count = VALUES(valid_count),
			invalid_count = VALUES(invalid_count),
			duration_seconds = VALUES(duration_seconds),
			items_per_second = VALUES(items_per_second),
			workers_used = VALUES(workers_used),
			final_workers = VALUES(final_workers),
			batches = VALUES(batches),
			placement_errors = VALUES(placement_errors),
			log_errors = VALUES(log_errors)`

	_, err := r.pool.db.ExecContext(ctx, query,
		run.ID, run.Directory, run.Status, run.Error, run.SnapshotVersion,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
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
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM validation_runs WHERE id = ?`, id)
	run, err := scanRun(row)
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
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM validation_runs ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, max(offset, 0))
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

// Count returns the number of stored runs
func (r *RunRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM validation_runs`).Scan(&count); err != nil {
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
		&run.ID, &run.Directory, &run.Status, &run.Error, &run.SnapshotVersion,
		&run.StartedAt, &run.FinishedAt,
		&run.TotalProcessed, &run.ValidCount, &run.InvalidCount,
		&run.DurationSeconds, &run.ItemsPerSecond,
		&run.WorkersUsed, &run.FinalWorkers, &run.Batches,
		&run.PlacementErrors, &run.LogErrors,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
