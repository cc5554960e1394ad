package database

import (
	"context"
	"sort"
	"sync"
)

// MemoryRunRepository keeps the run history in process memory. It is used
// when no database is configured and in tests.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]StoredRun

	// Error injection
	SaveError error
	ListError error
}

// NewMemoryRunRepository creates an empty in-memory history
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]StoredRun)}
}

func (m *MemoryRunRepository) Save(_ context.Context, run StoredRun) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *MemoryRunRepository) Get(_ context.Context, id string) (*StoredRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (m *MemoryRunRepository) List(_ context.Context, limit, offset int) ([]StoredRun, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	runs := make([]StoredRun, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if offset >= len(runs) {
		return []StoredRun{}, nil
	}
	runs = runs[max(offset, 0):]
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MemoryRunRepository) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs), nil
}
