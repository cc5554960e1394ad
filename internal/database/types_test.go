package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/validator"
)

func TestNewStoredRun_Completed(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := &validator.Summary{
		RunID:           "run-1",
		Directory:       "/photos",
		SnapshotVersion: 1,
		StartedAt:       start,
		FinishedAt:      start.Add(4 * time.Second),
		TotalProcessed:  8,
		ValidCount:      6,
		InvalidCount:    2,
		DurationSeconds: 4,
		ItemsPerSecond:  2,
		WorkersUsed:     3,
		FinalWorkers:    2,
		Batches:         1,
	}

	run := NewStoredRun(s, nil)

	if run.ID != "run-1" {
		t.Errorf("expected ID 'run-1', got '%s'", run.ID)
	}
	if run.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, run.Status)
	}
	if run.Error != "" {
		t.Errorf("expected no error, got %q", run.Error)
	}
	if run.ValidCount != 6 || run.InvalidCount != 2 || run.TotalProcessed != 8 {
		t.Errorf("counts not copied: %+v", run)
	}
	if run.WorkersUsed != 3 || run.FinalWorkers != 2 {
		t.Errorf("worker figures not copied: %+v", run)
	}
}

func TestNewStoredRun_Cancelled(t *testing.T) {
	run := NewStoredRun(&validator.Summary{RunID: "run-2"}, context.Canceled)

	if run.Status != StatusCancelled {
		t.Errorf("expected status %s, got %s", StatusCancelled, run.Status)
	}
	if run.Error != "context canceled" {
		t.Errorf("expected error text, got %q", run.Error)
	}
}

func TestMemoryRunRepository_SaveGetCount(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository()

	if err := repo.Save(ctx, StoredRun{ID: "a", TotalProcessed: 3}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.TotalProcessed != 3 {
		t.Errorf("expected stored run, got %+v", got)
	}

	missing, err := repo.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing run, got %+v", missing)
	}

	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestMemoryRunRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		if err := repo.Save(ctx, StoredRun{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{"all", 0, 0, []string{"third", "second", "first"}},
		{"limit", 2, 0, []string{"third", "second"}},
		{"offset", 10, 1, []string{"second", "first"}},
		{"past end", 5, 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := repo.List(ctx, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(runs) != len(tt.want) {
				t.Fatalf("expected %d runs, got %d", len(tt.want), len(runs))
			}
			for i, id := range tt.want {
				if runs[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, runs[i].ID)
				}
			}
		})
	}
}

func TestMemoryRunRepository_ErrorInjection(t *testing.T) {
	repo := NewMemoryRunRepository()
	repo.SaveError = errors.New("disk full")

	if err := repo.Save(context.Background(), StoredRun{ID: "x"}); err == nil {
		t.Error("expected injected error")
	}
}

func TestGetRunRepository_DefaultsToMemory(t *testing.T) {
	if IsBackendInitialized() {
		t.Skip("SQL backend registered")
	}
	if BackendName() != "memory" {
		t.Errorf("expected memory backend, got %s", BackendName())
	}
	a := GetRunRepository()
	b := GetRunRepository()
	if a != b {
		t.Error("expected the same in-memory repository on every call")
	}
	if _, ok := a.(*MemoryRunRepository); !ok {
		t.Errorf("expected *MemoryRunRepository, got %T", a)
	}
}
