package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
)

type Config struct {
	Validation   ValidationConfig
	Workers      WorkersConfig
	FaceDetector FaceDetectorConfig
	Database     DatabaseConfig
	Web          WebConfig
	Log          LogConfig
}

type ValidationConfig struct {
	SnapshotPath string // YAML file overlaid on the embedded defaults (optional)
	InvalidDir   string // holding directory for rejected images
	ResultLog    string // CSV failure log
}

type WorkersConfig struct {
	Min       int // lower pool bound (default 2)
	Max       int // upper pool bound, 0 derives min(16, cores)
	BatchSize int // images per pool construction (default 50)
}

type FaceDetectorConfig struct {
	URL string // face detection service, head and eye checks are skipped when empty
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, run history stays in memory when empty
	MaxOpenConns int    // Maximum open connections (default 10)
	MaxIdleConns int    // Maximum idle connections (default 2)
	MariaDBDSN   string // MariaDB DSN used when URL is empty, needs parseTime=true
}

type WebConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	File  string // optional JSON log file next to the text output
	Debug bool
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString returns the environment variable or the fallback when unset.
func envString(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

func Load() *Config {
	return &Config{
		Validation: ValidationConfig{
			SnapshotPath: os.Getenv("VALIDATION_CONFIG"),
			InvalidDir:   envString("INVALID_DIR", constants.DefaultInvalidDir),
			ResultLog:    envString("RESULT_LOG", constants.DefaultResultLog),
		},
		Workers: WorkersConfig{
			Min:       envInt("MIN_WORKERS", constants.MinWorkers),
			Max:       envInt("MAX_WORKERS", 0),
			BatchSize: envInt("BATCH_SIZE", constants.DefaultBatchSize),
		},
		FaceDetector: FaceDetectorConfig{
			URL: os.Getenv("FACE_DETECTOR_URL"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
			MariaDBDSN:   os.Getenv("MARIADB_DSN"),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Log: LogConfig{
			File:  os.Getenv("LOG_FILE"),
			Debug: os.Getenv("DEBUG") != "",
		},
	}
}

// Paths resolves the holding directory and failure log for an input
// directory. Relative settings are taken relative to dir.
func (v ValidationConfig) Paths(dir string) (invalidDir, resultLog string) {
	invalidDir = v.InvalidDir
	if invalidDir == "" {
		invalidDir = constants.DefaultInvalidDir
	}
	if !filepath.IsAbs(invalidDir) {
		invalidDir = filepath.Join(dir, invalidDir)
	}
	resultLog = v.ResultLog
	if resultLog == "" {
		resultLog = constants.DefaultResultLog
	}
	if !filepath.IsAbs(resultLog) {
		resultLog = filepath.Join(dir, resultLog)
	}
	return invalidDir, resultLog
}
