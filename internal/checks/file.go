package checks

import (
	"context"
	"errors"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
)

// Failure reasons written to the result log.
const (
	ReasonFormat     = "File format check failed"
	ReasonSize       = "File size check failed"
	ReasonHeight     = "File height check failed"
	ReasonWidth      = "File width check failed"
	ReasonLoad       = "Could not load image"
	ReasonCorrupted  = "Corrupted Image"
	ReasonGreyscale  = "GreyScale check failed"
	ReasonBlur       = "Blurness check failed"
	ReasonBackground = "Background check failed"
	ReasonHeadSmall  = "Head Ratio Small"
	ReasonHeadLarge  = "Head Ratio Large"
	ReasonNoHead     = "Could not detect head"
	ReasonMultiHead  = "Multiple heads detected"
	ReasonEye        = "Eye check failed"
	ReasonSymmetry   = "Symmetry check failed"
)

var errNoHeader = errors.New("image header unreadable")

// AllowedFormats maps the snapshot's format switches to decoder names.
func AllowedFormats(f config.Formats) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	if f.JPG || f.JPEG {
		set.Add("jpeg")
	}
	if f.PNG {
		set.Add("png")
	}
	if f.GIF {
		set.Add("gif")
	}
	if f.BMP {
		set.Add("bmp")
	}
	return set
}

func fileChecks() []Check {
	return []Check{
		{
			Name:     "format",
			Label:    "File format",
			Reason:   ReasonFormat,
			Stage:    StageFile,
			Bypassed: func(b config.Bypass) bool { return b.Format },
			Run:      checkFormat,
		},
		{
			Name:     "size",
			Label:    "File size",
			Reason:   ReasonSize,
			Stage:    StageFile,
			Bypassed: func(b config.Bypass) bool { return b.Size },
			Run:      checkSize,
		},
		{
			Name:     "height",
			Label:    "File height",
			Reason:   ReasonHeight,
			Stage:    StageFile,
			Bypassed: func(b config.Bypass) bool { return b.Height },
			Run:      checkHeight,
		},
		{
			Name:     "width",
			Label:    "File width",
			Reason:   ReasonWidth,
			Stage:    StageFile,
			Bypassed: func(b config.Bypass) bool { return b.Width },
			Run:      checkWidth,
		},
	}
}

// checkFormat fails unknown encodings as well as disallowed ones.
func checkFormat(_ context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
	if s.HeaderErr != nil {
		return Outcome{Passed: false}, nil
	}
	return Outcome{Passed: AllowedFormats(snap.Formats).Contains(s.Format)}, nil
}

func checkSize(_ context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
	kb := float64(s.SizeBytes) / 1000
	t := snap.Thresholds
	passed := kb >= t.MinSizeKB-constants.SizeToleranceKB && kb <= t.MaxSizeKB+constants.SizeToleranceKB
	return Outcome{
		Passed:   passed,
		Measured: kb,
		Details:  map[string]float64{"min_kb": t.MinSizeKB, "max_kb": t.MaxSizeKB},
	}, nil
}

func checkHeight(_ context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
	if s.HeaderErr != nil {
		return Outcome{}, errNoHeader
	}
	return inRange(s.Height, snap.Thresholds.MinHeight, snap.Thresholds.MaxHeight), nil
}

func checkWidth(_ context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
	if s.HeaderErr != nil {
		return Outcome{}, errNoHeader
	}
	return inRange(s.Width, snap.Thresholds.MinWidth, snap.Thresholds.MaxWidth), nil
}

func inRange(v, lo, hi int) Outcome {
	passed := v >= lo-constants.DimensionTolerance && v <= hi+constants.DimensionTolerance
	return Outcome{
		Passed:   passed,
		Measured: float64(v),
		Details:  map[string]float64{"min": float64(lo), "max": float64(hi)},
	}
}
