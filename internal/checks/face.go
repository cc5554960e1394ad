package checks

import (
	"context"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/facedetect"
)

const noDetectorNote = "face detector not configured"

func faceChecks(detector FaceDetector) []Check {
	return []Check{
		{
			Name:     "head",
			Label:    "Head",
			Reason:   ReasonNoHead,
			Stage:    StagePixel,
			Bypassed: func(b config.Bypass) bool { return b.Head },
			Run:      headCheck(detector),
		},
		{
			Name:     "eye",
			Label:    "Eye",
			Reason:   ReasonEye,
			Stage:    StagePixel,
			Bypassed: func(b config.Bypass) bool { return b.Eye },
			Run:      eyeCheck(detector),
		},
	}
}

// headCheck requires exactly one face covering between MinHeadRatio and
// MaxHeadRatio percent of the image.
func headCheck(detector FaceDetector) RunFunc {
	return func(ctx context.Context, s *Subject, snap config.Snapshot) (Outcome, error) {
		if detector == nil {
			return Outcome{Skipped: true, Note: noDetectorNote}, nil
		}
		faces, err := s.Faces(ctx, detector)
		if err != nil {
			return Outcome{}, err
		}

		t := snap.Thresholds
		switch len(faces) {
		case 0:
			return Outcome{Passed: false, Reason: ReasonNoHead}, nil
		case 1:
		default:
			return Outcome{
				Passed:   false,
				Reason:   ReasonMultiHead,
				Measured: float64(len(faces)),
			}, nil
		}

		ratio := headRatio(faces[0], s.Work.Bounds().Dx(), s.Work.Bounds().Dy())
		out := Outcome{
			Passed:   true,
			Measured: ratio,
			Details: map[string]float64{
				"min_ratio": t.MinHeadRatio,
				"max_ratio": t.MaxHeadRatio,
				"det_score": faces[0].DetScore,
			},
		}
		switch {
		case ratio < t.MinHeadRatio:
			out.Passed = false
			out.Reason = ReasonHeadSmall
			out.Threshold = t.MinHeadRatio
		case ratio > t.MaxHeadRatio:
			out.Passed = false
			out.Reason = ReasonHeadLarge
			out.Threshold = t.MaxHeadRatio
		}
		return out, nil
	}
}

// headRatio is the face box area as a percentage of the image area.
func headRatio(f facedetect.Face, width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	return facedetect.Area(f.BBox) / float64(width*height) * 100
}

// eyeCheck requires both eye landmarks of the most prominent face to lie in
// the upper part of its box. Detectors that return no landmarks skip it.
func eyeCheck(detector FaceDetector) RunFunc {
	return func(ctx context.Context, s *Subject, _ config.Snapshot) (Outcome, error) {
		if detector == nil {
			return Outcome{Skipped: true, Note: noDetectorNote}, nil
		}
		faces, err := s.Faces(ctx, detector)
		if err != nil {
			return Outcome{}, err
		}
		if len(faces) == 0 {
			return Outcome{Passed: false}, nil
		}

		face := faces[0]
		for _, f := range faces[1:] {
			if facedetect.Area(f.BBox) > facedetect.Area(face.BBox) {
				face = f
			}
		}
		if len(face.Kps) < 2 {
			return Outcome{Skipped: true, Note: "detector returned no landmarks"}, nil
		}

		visible := 0
		for _, eye := range face.Kps[:2] {
			if eyeInRegion(eye, face.BBox) {
				visible++
			}
		}
		return Outcome{Passed: visible == 2, Measured: float64(visible), Threshold: 2}, nil
	}
}

func eyeInRegion(p []float64, bbox []float64) bool {
	if len(p) < 2 || len(bbox) != 4 {
		return false
	}
	limit := bbox[1] + (bbox[3]-bbox[1])*constants.EyeRegionRatio
	return p[0] >= bbox[0] && p[0] <= bbox[2] && p[1] >= bbox[1] && p[1] <= limit
}
