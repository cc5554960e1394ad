package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database/mariadb"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database/postgres"
)

// initHistory registers the run history backend. PostgreSQL wins when both
// are configured; with neither, runs are kept in memory. The returned func
// closes the connection pool.
func initHistory(cfg *config.Config) (func(), error) {
	switch {
	case cfg.Database.URL != "":
		pool, err := postgres.Initialize(context.Background(), &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		slog.Debug("run history backend ready", "backend", database.BackendName())
		return func() { pool.Close() }, nil
	case cfg.Database.MariaDBDSN != "":
		pool, err := mariadb.Initialize(cfg.Database.MariaDBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		slog.Debug("run history backend ready", "backend", database.BackendName())
		return func() { pool.Close() }, nil
	default:
		return func() {}, nil
	}
}
