package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"VALIDATION_CONFIG", "INVALID_DIR", "RESULT_LOG", "MIN_WORKERS", "MAX_WORKERS", "BATCH_SIZE", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Validation.InvalidDir != "invalid" {
		t.Errorf("expected default invalid dir 'invalid', got '%s'", cfg.Validation.InvalidDir)
	}
	if cfg.Validation.ResultLog != "result.csv" {
		t.Errorf("expected default result log 'result.csv', got '%s'", cfg.Validation.ResultLog)
	}
	if cfg.Workers.Min != 2 {
		t.Errorf("expected default min workers 2, got %d", cfg.Workers.Min)
	}
	if cfg.Workers.Max != 0 {
		t.Errorf("expected max workers 0 (auto), got %d", cfg.Workers.Max)
	}
	if cfg.Workers.BatchSize != 50 {
		t.Errorf("expected default batch size 50, got %d", cfg.Workers.BatchSize)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected empty database URL, got '%s'", cfg.Database.URL)
	}
}

func TestLoad_WorkerOverrides(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"valid", "8", 8},
		{"invalid", "many", 0},
		{"negative", "-4", 0},
		{"zero", "0", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("MAX_WORKERS", tc.value)

			cfg := Load()

			if cfg.Workers.Max != tc.expected {
				t.Errorf("MAX_WORKERS=%q: got %d, want %d", tc.value, cfg.Workers.Max, tc.expected)
			}
		})
	}
}

func TestLoad_FaceDetectorAndWeb(t *testing.T) {
	t.Setenv("FACE_DETECTOR_URL", "http://detector:8000")
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("DEBUG", "1")

	cfg := Load()

	if cfg.FaceDetector.URL != "http://detector:8000" {
		t.Errorf("expected detector URL 'http://detector:8000', got '%s'", cfg.FaceDetector.URL)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Web.Port)
	}
	if !cfg.Log.Debug {
		t.Error("expected debug logging to be enabled")
	}
}

func TestDefaultSnapshot(t *testing.T) {
	s := DefaultSnapshot()

	if s.Version != SnapshotVersion {
		t.Errorf("expected version %d, got %d", SnapshotVersion, s.Version)
	}
	if s.Thresholds.MinWidth != 100 || s.Thresholds.MaxWidth != 2000 {
		t.Errorf("unexpected width range %d..%d", s.Thresholds.MinWidth, s.Thresholds.MaxWidth)
	}
	if s.Thresholds.Background != 40 {
		t.Errorf("expected background threshold 40, got %f", s.Thresholds.Background)
	}
	if s.Thresholds.Symmetry != 35 {
		t.Errorf("expected symmetry threshold 35, got %f", s.Thresholds.Symmetry)
	}
	if !s.Formats.JPG || !s.Formats.JPEG || !s.Formats.PNG {
		t.Error("expected jpg, jpeg and png to be allowed by default")
	}
	if s.Bypass.All() {
		t.Error("expected checks to be enabled by default")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestParseSnapshot_OverlaysDefaults(t *testing.T) {
	data := []byte(`
thresholds:
  min_width: 300
bypass:
  head: true
`)

	s, err := ParseSnapshot(data)
	if err != nil {
		t.Fatalf("ParseSnapshot failed: %v", err)
	}

	if s.Thresholds.MinWidth != 300 {
		t.Errorf("expected min width 300, got %d", s.Thresholds.MinWidth)
	}
	if s.Thresholds.MaxWidth != 2000 {
		t.Errorf("expected max width to keep default 2000, got %d", s.Thresholds.MaxWidth)
	}
	if !s.Bypass.Head {
		t.Error("expected head bypass to be set")
	}
	if s.Bypass.Eye {
		t.Error("expected eye bypass to keep default false")
	}
	if s.Version != SnapshotVersion {
		t.Errorf("expected version to default to %d, got %d", SnapshotVersion, s.Version)
	}
}

func TestParseSnapshot_ReportsAllProblems(t *testing.T) {
	data := []byte(`
thresholds:
  min_height: 500
  max_height: 100
  min_width: 900
  max_width: 10
  symmetry: -1
`)

	_, err := ParseSnapshot(data)
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{"height range", "width range", "symmetry"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %s", want, msg)
		}
	}
}

func TestParseSnapshot_RejectsNewerVersion(t *testing.T) {
	_, err := ParseSnapshot([]byte("version: 7\n"))
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestValidate_NoFormatAllowed(t *testing.T) {
	s := DefaultSnapshot()
	s.Formats = Formats{}

	if err := s.Validate(); err == nil {
		t.Error("expected error when no format is allowed")
	}

	s.Bypass.Format = true
	if err := s.Validate(); err != nil {
		t.Errorf("expected no error with format check bypassed, got %v", err)
	}
}

func TestSnapshot_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")

	s := DefaultSnapshot()
	s.Thresholds.Blurness = 55
	s.Bypass.Symmetry = true

	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Thresholds != s.Thresholds {
		t.Errorf("thresholds changed: got %+v, want %+v", loaded.Thresholds, s.Thresholds)
	}
	if loaded.Bypass != s.Bypass {
		t.Errorf("bypass flags changed: got %+v, want %+v", loaded.Bypass, s.Bypass)
	}
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadSnapshot_EmptyPath(t *testing.T) {
	s, err := LoadSnapshot("")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if s != DefaultSnapshot() {
		t.Error("expected defaults for empty path")
	}
}

func TestCapture_CopiesAreIndependent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	base := DefaultSnapshot()

	captured := base.Capture(at)
	captured.Thresholds.MinWidth = 1

	if base.Thresholds.MinWidth == 1 {
		t.Error("modifying a captured copy changed the original")
	}
	if !captured.CapturedAt.Equal(at) {
		t.Errorf("expected capture time %v, got %v", at, captured.CapturedAt)
	}
	if !base.CapturedAt.IsZero() {
		t.Error("expected original capture time to stay zero")
	}
}

func TestBypassAll(t *testing.T) {
	if !BypassAll().All() {
		t.Error("expected BypassAll to bypass every check")
	}

	b := BypassAll()
	b.Width = false
	if b.All() {
		t.Error("expected All to be false when one check is enabled")
	}
}

func TestValidationPaths(t *testing.T) {
	tests := []struct {
		name        string
		cfg         ValidationConfig
		wantInvalid string
		wantLog     string
	}{
		{"defaults", ValidationConfig{}, "/in/invalid", "/in/result.csv"},
		{"relative", ValidationConfig{InvalidDir: "rejected", ResultLog: "out/log.csv"}, "/in/rejected", "/in/out/log.csv"},
		{"absolute", ValidationConfig{InvalidDir: "/hold", ResultLog: "/var/log.csv"}, "/hold", "/var/log.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invalid, log := tt.cfg.Paths("/in")
			if invalid != filepath.FromSlash(tt.wantInvalid) {
				t.Errorf("expected invalid dir %s, got %s", tt.wantInvalid, invalid)
			}
			if log != filepath.FromSlash(tt.wantLog) {
				t.Errorf("expected result log %s, got %s", tt.wantLog, log)
			}
		})
	}
}
