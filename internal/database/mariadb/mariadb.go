package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// EnsureSchema creates the run history table when missing.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS validation_runs (
			id               VARCHAR(64) PRIMARY KEY,
			directory        TEXT NOT NULL,
			status           VARCHAR(32) NOT NULL,
			error            TEXT NOT NULL,
			snapshot_version INT NOT NULL,
			started_at       DATETIME(6) NOT NULL,
			finished_at      DATETIME(6) NOT NULL,
			total_processed  INT NOT NULL DEFAULT 0,
			valid_count      INT NOT NULL DEFAULT 0,
			invalid_count    INT NOT NULL DEFAULT 0,
			duration_seconds DOUBLE NOT NULL DEFAULT 0,
			items_per_second DOUBLE NOT NULL DEFAULT 0,
			workers_used     INT NOT NULL DEFAULT 0,
			final_workers    INT NOT NULL DEFAULT 0,
			batches          INT NOT NULL DEFAULT 0,
			placement_errors INT NOT NULL DEFAULT 0,
			log_errors       INT NOT NULL DEFAULT 0,
			INDEX idx_validation_runs_started_at (started_at)
		)
	`)
	if err != nil {
		return fmt.Errorf("create validation_runs: %w", err)
	}
	return nil
}

// Initialize connects to MariaDB, creates the schema and registers the pool
// as the run history store.
func Initialize(dsn string) (*Pool, error) {
	pool, err := NewPool(dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.EnsureSchema(context.Background()); err != nil {
		_ = pool.Close()
		return nil, err
	}
	database.RegisterBackend("mariadb", func() database.RunRepository {
		return NewRunRepository(pool)
	})
	return pool, nil
}
