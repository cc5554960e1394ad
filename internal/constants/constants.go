// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Input discovery constants
const (
	// ValidDirName is the subdirectory of the input directory that receives passing images
	ValidDirName = "valid"

	// DefaultInvalidDir is the holding directory for images that failed at least one check
	DefaultInvalidDir = "invalid"

	// DefaultResultLog is the CSV file that receives one row per invalid image
	DefaultResultLog = "result.csv"
)

// ImageExtensions lists the file extensions picked up during directory enumeration.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
}

// Batch processing constants
const (
	// DefaultBatchSize is the number of images submitted per pool construction
	DefaultBatchSize = 50

	// ProgressLogInterval is the minimum time between two progress log lines
	ProgressLogInterval = time.Second
)

// Worker sizing constants
const (
	// MinWorkers is the lower bound for the worker pool
	MinWorkers = 2

	// MaxWorkersCap caps the default upper bound regardless of core count
	MaxWorkersCap = 16

	// InitialCoreRatio is the share of cores used for the initial pool size
	InitialCoreRatio = 0.7

	// LowMemoryThreshold halves the initial pool when less memory is available
	LowMemoryThreshold = 4 << 30

	// WorkerHistorySize is the number of performance observations retained
	WorkerHistorySize = 10

	// MinObservations is the number of observations needed before an adjustment
	MinObservations = 3

	// ScaleUpCPU and ScaleUpMemory are the averages below which a worker is added
	ScaleUpCPU    = 70.0
	ScaleUpMemory = 80.0

	// ScaleDownCPU and ScaleDownMemory are the averages above which a worker is removed
	ScaleDownCPU    = 90.0
	ScaleDownMemory = 90.0
)

// Resource monitoring constants
const (
	// SampleInterval is the resource monitor sampling period
	SampleInterval = time.Second

	// SampleWindow is the number of resource samples kept in the rolling window
	SampleWindow = 60

	// MonitorStopTimeout bounds how long Stop waits for the sampler to exit
	MonitorStopTimeout = time.Second
)

// Check tolerance constants
const (
	// DimensionTolerance is the slack in pixels applied to height and width bounds
	DimensionTolerance = 10

	// SizeToleranceKB is the slack in kilobytes applied to file size bounds
	SizeToleranceKB = 10

	// MinBackgroundBrightness is the absolute floor for background brightness
	MinBackgroundBrightness = 20.0

	// DarkImageBrightness scales down blur variance for images darker than this
	DarkImageBrightness = 30.0

	// PixelationSampleSize is the edge length of the pixelation probe image
	PixelationSampleSize = 128

	// WorkImageMaxSize is the largest edge of the downscaled image used by pixel checks
	WorkImageMaxSize = 800

	// SharpnessScale maps Laplacian variance to a 0-100 sharpness percentage
	SharpnessScale = 500.0
)

// Placement constants
const (
	// MoveRetries is the number of attempts for a transiently failing move
	MoveRetries = 3

	// MoveRetryDelay is the base delay between move attempts
	MoveRetryDelay = 50 * time.Millisecond
)

// Face detection constants
const (
	// FaceMinScore is the minimum detector confidence for a face to count
	FaceMinScore = 0.5

	// FaceOverlapIoU merges detections overlapping more than this into one head
	FaceOverlapIoU = 0.4

	// EyeRegionRatio is the upper share of the face box where both eyes must lie
	EyeRegionRatio = 0.6
)
