package database

import (
	"context"
)

// RunReader provides read-only access to the run history
type RunReader interface {
	// Get retrieves a run by ID, returns nil if not found
	Get(ctx context.Context, id string) (*StoredRun, error)
	// List returns runs newest first
	List(ctx context.Context, limit, offset int) ([]StoredRun, error)
	// Count returns the total number of stored runs
	Count(ctx context.Context) (int, error)
}

// RunWriter records finished runs
type RunWriter interface {
	// Save inserts or replaces a run
	Save(ctx context.Context, run StoredRun) error
}

// RunRepository is the full history store
type RunRepository interface {
	RunReader
	RunWriter
}
