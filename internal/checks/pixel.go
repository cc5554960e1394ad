package checks

import (
	"context"
	"image"
	"math"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/imaging"
)

func pixelChecks() []Check {
	return []Check{
		{
			Name:     "corrupted",
			Label:    "Corruption",
			Reason:   ReasonCorrupted,
			Stage:    StagePixel,
			Bypassed: func(b config.Bypass) bool { return b.Corrupted },
			Run:      checkCorrupted,
		},
		{
			Name:     "greyscale",
			Label:    "GreyScale",
			Reason:   ReasonGreyscale,
			Stage:    StagePixel,
			Bypassed: func(b config.Bypass) bool { return b.Greyness },
			Run:      checkGreyscale,
		},
		{
			Name:     "blur",
			Label:    "Blurness",
			Reason:   ReasonBlur,
			Stage:    StagePixel,
			Bypassed: func(b config.Bypass) bool { return b.Blurness },
			Run:      checkBlur,
		},
		{
			Name:     "background",
			Label:    "Background",
			Reason:   ReasonBackground,
			Stage:    StagePixel,
			Bypassed: func(b config.Bypass) bool { return b.Background },
			Run:      checkBackground,
		},
	}
}

func symmetryCheck() Check {
	return Check{
		Name:     "symmetry",
		Label:    "Symmetry",
		Reason:   ReasonSymmetry,
		Stage:    StagePixel,
		Bypassed: func(b config.Bypass) bool { return b.Symmetry },
		Run:      checkSymmetry,
	}
}

// checkCorrupted compares the decoded bounds with the header. GIF headers
// describe the logical screen, which may be larger than the first frame.
func checkCorrupted(_ context.Context, s *Subject, _ config.Snapshot) (Outcome, error) {
	if s.Image == nil {
		return Outcome{}, ErrNotLoaded
	}
	b := s.Image.Bounds()
	if b.Empty() {
		return Outcome{Passed: false}, nil
	}
	if s.HeaderErr == nil && s.Format != "gif" && (b.Dx() != s.Width || b.Dy() != s.Height) {
		return Outcome{Passed: false, Details: map[string]float64{
			"decoded_width": float64(b.Dx()), "decoded_height": float64(b.Dy()),
		}}, nil
	}
	return Outcome{Passed: true}, nil
}

// checkGreyscale fails images where no pixel's channels differ by more than
// the greyness threshold.
func checkGreyscale(_ context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
	if s.Work == nil {
		return Outcome{}, ErrNotLoaded
	}
	spread := imaging.MaxChannelSpread(s.Work)
	return Outcome{
		Passed:    spread > snap.Thresholds.Greyness,
		Measured:  spread,
		Threshold: snap.Thresholds.Greyness,
	}, nil
}

// checkBlur combines a Laplacian variance sharpness test with a blockiness
// test on a fixed-size resample.
func checkBlur(_ context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
	if s.Gray == nil {
		return Outcome{}, ErrNotLoaded
	}
	t := snap.Thresholds

	variance := s.Gray.LaplacianVariance()
	brightness := s.Gray.Mean()
	if brightness < constants.DarkImageBrightness {
		variance *= brightness / constants.DarkImageBrightness
	}
	blurry := variance < t.Blurness

	probe := imaging.ToGray(imaging.Resample(s.Work, constants.PixelationSampleSize, constants.PixelationSampleSize))
	dx, dy := probe.NeighbourDiff()
	blockiness := (dx + dy) / 2
	pixelated := blockiness > t.Pixelated

	return Outcome{
		Passed:    !blurry && !pixelated,
		Measured:  variance,
		Threshold: t.Blurness,
		Details: map[string]float64{
			"sharpness_pct":  math.Min(100, variance/constants.SharpnessScale*100),
			"brightness_pct": brightness / 255 * 100,
			"blockiness":     blockiness,
			"pixelated":      boolFloat(pixelated),
		},
	}, nil
}

// backgroundRegions returns the strips treated as background: the top and
// bottom 5%, and the outer 15% on both sides of the upper half.
func backgroundRegions(w, h int) []image.Rectangle {
	top := max(1, h*5/100)
	side := max(1, w*15/100)
	return []image.Rectangle{
		image.Rect(0, 0, w, top),
		image.Rect(0, 0, side, h/2),
		image.Rect(w-side, 0, w, h/2),
		image.Rect(0, h-top, w, h),
	}
}

func checkBackground(_ context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
	if s.Gray == nil {
		return Outcome{}, ErrNotLoaded
	}
	var values []float64
	for _, r := range backgroundRegions(s.Gray.Width, s.Gray.Height) {
		values = append(values, s.Gray.Region(r)...)
	}
	mean, variance := imaging.MeanVariance(values)
	stddev := math.Sqrt(variance)

	t := snap.Thresholds
	bright := mean >= t.Background && mean >= constants.MinBackgroundBrightness
	uniform := stddev <= t.BackgroundUniformity
	return Outcome{
		Passed:    bright && uniform,
		Measured:  mean,
		Threshold: t.Background,
		Details: map[string]float64{
			"stddev":         stddev,
			"max_stddev":     t.BackgroundUniformity,
			"brightness_pct": mean / 255 * 100,
		},
	}, nil
}

// checkSymmetry compares the left half with the mirrored right half.
func checkSymmetry(_ context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
	if s.Gray == nil {
		return Outcome{}, ErrNotLoaded
	}
	diff := s.Gray.MirrorDiff()
	return Outcome{
		Passed:    diff < snap.Thresholds.Symmetry,
		Measured:  diff,
		Threshold: snap.Thresholds.Symmetry,
		Details:   map[string]float64{"symmetry_pct": 100 - diff/255*100},
	}, nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
