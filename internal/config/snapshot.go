package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// SnapshotVersion is the schema version written by this build.
const SnapshotVersion = 1

// Thresholds holds every numeric limit applied by the checks.
type Thresholds struct {
	MinHeight            int     `yaml:"min_height" json:"min_height"`
	MaxHeight            int     `yaml:"max_height" json:"max_height"`
	MinWidth             int     `yaml:"min_width" json:"min_width"`
	MaxWidth             int     `yaml:"max_width" json:"max_width"`
	MinSizeKB            float64 `yaml:"min_size_kb" json:"min_size_kb"`
	MaxSizeKB            float64 `yaml:"max_size_kb" json:"max_size_kb"`
	Blurness             float64 `yaml:"blurness" json:"blurness"`
	Pixelated            float64 `yaml:"pixelated" json:"pixelated"`
	Background           float64 `yaml:"background" json:"background"`
	BackgroundUniformity float64 `yaml:"background_uniformity" json:"background_uniformity"`
	Greyness             float64 `yaml:"greyness" json:"greyness"`
	Symmetry             float64 `yaml:"symmetry" json:"symmetry"`
	MinHeadRatio         float64 `yaml:"min_head_ratio" json:"min_head_ratio"`
	MaxHeadRatio         float64 `yaml:"max_head_ratio" json:"max_head_ratio"`
}

// Formats lists which encoded formats pass the format check.
type Formats struct {
	JPG  bool `yaml:"jpg" json:"jpg"`
	JPEG bool `yaml:"jpeg" json:"jpeg"`
	PNG  bool `yaml:"png" json:"png"`
	GIF  bool `yaml:"gif" json:"gif"`
	BMP  bool `yaml:"bmp" json:"bmp"`
}

// Bypass holds one flag per check. A bypassed check is not run.
type Bypass struct {
	Format     bool `yaml:"format" json:"format"`
	Size       bool `yaml:"size" json:"size"`
	Height     bool `yaml:"height" json:"height"`
	Width      bool `yaml:"width" json:"width"`
	Corrupted  bool `yaml:"corrupted" json:"corrupted"`
	Greyness   bool `yaml:"greyness" json:"greyness"`
	Blurness   bool `yaml:"blurness" json:"blurness"`
	Background bool `yaml:"background" json:"background"`
	Head       bool `yaml:"head" json:"head"`
	Eye        bool `yaml:"eye" json:"eye"`
	Symmetry   bool `yaml:"symmetry" json:"symmetry"`
}

// All reports whether every check is bypassed.
func (b Bypass) All() bool {
	return b.Format && b.Size && b.Height && b.Width && b.Corrupted && b.Greyness &&
		b.Blurness && b.Background && b.Head && b.Eye && b.Symmetry
}

// BypassAll returns a Bypass with every flag set.
func BypassAll() Bypass {
	return Bypass{
		Format: true, Size: true, Height: true, Width: true, Corrupted: true, Greyness: true,
		Blurness: true, Background: true, Head: true, Eye: true, Symmetry: true,
	}
}

// Snapshot is the configuration captured once per batch run. It holds no
// references, so every copy handed to a worker is independent.
type Snapshot struct {
	Version    int        `yaml:"version" json:"version"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Formats    Formats    `yaml:"formats" json:"formats"`
	Bypass     Bypass     `yaml:"bypass" json:"bypass"`
	CapturedAt time.Time  `yaml:"-" json:"captured_at"`
}

// DefaultSnapshot returns the embedded defaults.
func DefaultSnapshot() Snapshot {
	var s Snapshot
	if err := yaml.Unmarshal(defaultsYAML, &s); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return s
}

// ParseSnapshot overlays YAML data on the defaults. Keys missing from data
// keep their default value.
func ParseSnapshot(data []byte) (Snapshot, error) {
	s := DefaultSnapshot()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if s.Version == 0 {
		s.Version = SnapshotVersion
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// LoadSnapshot reads a YAML snapshot file. An empty path yields the defaults.
func LoadSnapshot(path string) (Snapshot, error) {
	if path == "" {
		return DefaultSnapshot(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return ParseSnapshot(data)
}

// Marshal encodes the snapshot as YAML.
func (s Snapshot) Marshal() ([]byte, error) {
	if s.Version == 0 {
		s.Version = SnapshotVersion
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Save writes the snapshot to path as YAML.
func (s Snapshot) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Capture returns a copy stamped with the capture time.
func (s Snapshot) Capture(at time.Time) Snapshot {
	s.CapturedAt = at
	return s
}

// Validate reports every inconsistent threshold at once.
func (s Snapshot) Validate() error {
	var errs *multierror.Error
	t := s.Thresholds

	if s.Version > SnapshotVersion {
		errs = multierror.Append(errs, fmt.Errorf("unsupported snapshot version %d (max %d)", s.Version, SnapshotVersion))
	}
	if t.MinHeight < 0 || t.MinHeight > t.MaxHeight {
		errs = multierror.Append(errs, fmt.Errorf("height range %d..%d is invalid", t.MinHeight, t.MaxHeight))
	}
	if t.MinWidth < 0 || t.MinWidth > t.MaxWidth {
		errs = multierror.Append(errs, fmt.Errorf("width range %d..%d is invalid", t.MinWidth, t.MaxWidth))
	}
	if t.MinSizeKB < 0 || t.MinSizeKB > t.MaxSizeKB {
		errs = multierror.Append(errs, fmt.Errorf("size range %.0f..%.0f KB is invalid", t.MinSizeKB, t.MaxSizeKB))
	}
	if t.MinHeadRatio < 0 || t.MaxHeadRatio > 100 || t.MinHeadRatio > t.MaxHeadRatio {
		errs = multierror.Append(errs, fmt.Errorf("head ratio range %.0f..%.0f is invalid", t.MinHeadRatio, t.MaxHeadRatio))
	}
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"blurness", t.Blurness},
		{"pixelated", t.Pixelated},
		{"background", t.Background},
		{"background_uniformity", t.BackgroundUniformity},
		{"greyness", t.Greyness},
		{"symmetry", t.Symmetry},
	} {
		if th.value < 0 {
			errs = multierror.Append(errs, fmt.Errorf("threshold %s must not be negative", th.name))
		}
	}
	if !s.Bypass.Format && !s.Formats.Any() {
		errs = multierror.Append(errs, errors.New("format check enabled but no format is allowed"))
	}

	return errs.ErrorOrNil()
}

// Any reports whether at least one format is allowed.
func (f Formats) Any() bool {
	return f.JPG || f.JPEG || f.PNG || f.GIF || f.BMP
}
