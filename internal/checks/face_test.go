package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/checks/checkstest"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/facedetect"
)

func runFaceChecks(t *testing.T, d *checkstest.Detector) map[string]Report {
	t.Helper()
	s := loadedSubject(t, "face.jpg", checkstest.JPEG(checkstest.Portrait(400, 400)))
	reports := NewRegistry(d, nil).Run(context.Background(), StagePixel, s, config.DefaultSnapshot())
	byName := make(map[string]Report, len(reports))
	for _, r := range reports {
		byName[r.Check] = r
	}
	return byName
}

func TestHeadCheck(t *testing.T) {
	tests := []struct {
		name   string
		faces  []facedetect.Face
		reason string
	}{
		{"one face in range", []facedetect.Face{checkstest.Face(100, 80, 300, 320)}, ""},
		{"no face", nil, ReasonNoHead},
		{"face too small", []facedetect.Face{checkstest.Face(180, 180, 220, 220)}, ReasonHeadSmall},
		{"face too large", []facedetect.Face{checkstest.Face(0, 0, 400, 380)}, ReasonHeadLarge},
		{
			"two faces",
			[]facedetect.Face{checkstest.Face(20, 20, 120, 120), checkstest.Face(250, 250, 380, 380)},
			ReasonMultiHead,
		},
		{
			"overlapping boxes count once",
			[]facedetect.Face{checkstest.Face(100, 80, 300, 320), checkstest.Face(105, 85, 305, 325)},
			"",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reports := runFaceChecks(t, &checkstest.Detector{Faces: tc.faces})
			assert.Equal(t, tc.reason, reports["head"].Reason)
		})
	}
}

func TestHeadCheck_RatioMeasured(t *testing.T) {
	reports := runFaceChecks(t, &checkstest.Detector{Faces: []facedetect.Face{checkstest.Face(100, 80, 300, 320)}})

	assert.InDelta(t, 30.0, reports["head"].Measured, 0.001)
}

func TestHeadCheck_LowConfidenceIgnored(t *testing.T) {
	weak := checkstest.Face(100, 80, 300, 320)
	weak.DetScore = 0.2

	reports := runFaceChecks(t, &checkstest.Detector{Faces: []facedetect.Face{weak}})

	assert.Equal(t, ReasonNoHead, reports["head"].Reason)
}

func TestEyeCheck(t *testing.T) {
	low := checkstest.Face(100, 80, 300, 320)
	low.Kps[0] = []float64{150, 300}
	low.Kps[1] = []float64{250, 300}

	noLandmarks := checkstest.Face(100, 80, 300, 320)
	noLandmarks.Kps = nil

	tests := []struct {
		name    string
		faces   []facedetect.Face
		reason  string
		skipped bool
	}{
		{"eyes in upper region", []facedetect.Face{checkstest.Face(100, 80, 300, 320)}, "", false},
		{"eyes too low", []facedetect.Face{low}, ReasonEye, false},
		{"no face", nil, ReasonEye, false},
		{"no landmarks", []facedetect.Face{noLandmarks}, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reports := runFaceChecks(t, &checkstest.Detector{Faces: tc.faces})
			assert.Equal(t, tc.reason, reports["eye"].Reason)
			assert.Equal(t, tc.skipped, reports["eye"].Skipped)
		})
	}
}

func TestFaceChecks_ShareOneDetection(t *testing.T) {
	d := &checkstest.Detector{Faces: []facedetect.Face{checkstest.Face(100, 80, 300, 320)}}

	runFaceChecks(t, d)

	assert.Equal(t, 1, d.Calls())
}

func TestFaceChecks_DetectorError(t *testing.T) {
	d := &checkstest.Detector{Err: errors.New("connection refused")}

	reports := runFaceChecks(t, d)

	assert.Equal(t, "Head check error: face detection: connection refused", reports["head"].Reason)
	assert.Equal(t, "Eye check error: face detection: connection refused", reports["eye"].Reason)
	assert.Equal(t, 1, d.Calls())
}

func TestFaceChecks_BypassSkipsDetection(t *testing.T) {
	d := &checkstest.Detector{}
	s := loadedSubject(t, "face.jpg", checkstest.JPEG(checkstest.Portrait(400, 400)))
	snap := config.DefaultSnapshot()
	snap.Bypass.Head = true
	snap.Bypass.Eye = true

	reports := NewRegistry(d, nil).Run(context.Background(), StagePixel, s, snap)

	assert.Empty(t, failedReasons(reports))
	assert.Zero(t, d.Calls())
}

func TestEyeInRegion(t *testing.T) {
	box := []float64{0, 0, 100, 100}

	assert.True(t, eyeInRegion([]float64{50, 30}, box))
	assert.True(t, eyeInRegion([]float64{50, 60}, box))
	assert.False(t, eyeInRegion([]float64{50, 61}, box))
	assert.False(t, eyeInRegion([]float64{120, 30}, box))
	assert.False(t, eyeInRegion([]float64{50}, box))
}
