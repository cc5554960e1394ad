package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
)

func seededRuns(t *testing.T, n int) *database.MemoryRunRepository {
	t.Helper()
	repo := database.NewMemoryRunRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		run := database.StoredRun{
			ID:        fmt.Sprintf("run-%d", i),
			Directory: "/photos",
			Status:    database.StatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Save(context.Background(), run); err != nil {
			t.Fatal(err)
		}
	}
	return repo
}

func TestRunsHandler_List(t *testing.T) {
	handler := NewRunsHandler(seededRuns(t, 5))

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=2", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp struct {
		Runs  []database.StoredRun `json:"runs"`
		Total int                  `json:"total"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Total != 5 {
		t.Errorf("expected total 5, got %d", resp.Total)
	}
	if len(resp.Runs) != 2 || resp.Runs[0].ID != "run-4" {
		t.Errorf("expected newest two runs, got %+v", resp.Runs)
	}
}

func TestRunsHandler_ListError(t *testing.T) {
	repo := database.NewMemoryRunRepository()
	repo.ListError = errors.New("connection reset")
	handler := NewRunsHandler(repo)

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to list runs")
}

func TestRunsHandler_Get(t *testing.T) {
	handler := NewRunsHandler(seededRuns(t, 2))

	tests := []struct {
		id     string
		status int
	}{
		{"run-1", http.StatusOK},
		{"missing", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+tc.id, nil), map[string]string{"id": tc.id})
			handler.Get(recorder, req)

			assertStatusCode(t, recorder, tc.status)
			if tc.status == http.StatusOK {
				var run database.StoredRun
				parseJSONResponse(t, recorder, &run)
				if run.ID != tc.id {
					t.Errorf("expected run %s, got %s", tc.id, run.ID)
				}
			}
		})
	}
}
