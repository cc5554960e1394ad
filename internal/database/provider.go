package database

import (
	"sync"
)

var (
	backendRuns func() RunRepository
	backendName = "memory"

	memoryOnce sync.Once
	memoryRuns *MemoryRunRepository
	providerMu sync.RWMutex
)

// RegisterBackend registers a SQL repository constructor under name.
// This is called by the postgres and mariadb packages to avoid import cycles.
func RegisterBackend(name string, runs func() RunRepository) {
	providerMu.Lock()
	defer providerMu.Unlock()
	backendRuns = runs
	backendName = name
}

// IsBackendInitialized reports whether a SQL backend is registered.
func IsBackendInitialized() bool {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return backendRuns != nil
}

// BackendName returns the active backend, "memory" when none is registered.
func BackendName() string {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return backendName
}

// GetRunRepository returns the registered SQL repository, or the
// process-wide in-memory one when no database is configured.
func GetRunRepository() RunRepository {
	providerMu.RLock()
	ctor := backendRuns
	providerMu.RUnlock()
	if ctor != nil {
		return ctor()
	}
	memoryOnce.Do(func() {
		memoryRuns = NewMemoryRunRepository()
	})
	return memoryRuns
}
