package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/checks/checkstest"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
)

func TestNewSubject_ReadsHeader(t *testing.T) {
	data := checkstest.PNG(checkstest.Portrait(320, 240))

	s := NewSubject("/photos/person.png", data)

	assert.Equal(t, "person.png", s.Name)
	assert.Equal(t, "png", s.Format)
	assert.Equal(t, 320, s.Width)
	assert.Equal(t, 240, s.Height)
	assert.Equal(t, int64(len(data)), s.SizeBytes)
	assert.NoError(t, s.HeaderErr)
	assert.False(t, s.Loaded())
}

func TestNewSubject_GarbageHeader(t *testing.T) {
	s := NewSubject("/photos/broken.jpg", []byte("definitely not an image"))

	assert.Error(t, s.HeaderErr)
	assert.Error(t, s.Load())
}

func TestAllowedFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats config.Formats
		allowed []string
		denied  []string
	}{
		{"jpg only", config.Formats{JPG: true}, []string{"jpeg"}, []string{"png", "gif", "bmp"}},
		{"jpeg only", config.Formats{JPEG: true}, []string{"jpeg"}, []string{"png"}},
		{"png and bmp", config.Formats{PNG: true, BMP: true}, []string{"png", "bmp"}, []string{"jpeg", "gif"}},
		{"none", config.Formats{}, nil, []string{"jpeg", "png", "gif", "bmp"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set := AllowedFormats(tc.formats)
			for _, f := range tc.allowed {
				assert.True(t, set.Contains(f), "expected %s allowed", f)
			}
			for _, f := range tc.denied {
				assert.False(t, set.Contains(f), "expected %s denied", f)
			}
		})
	}
}

func TestCheckFormat(t *testing.T) {
	snap := config.DefaultSnapshot()
	ctx := context.Background()

	jpg := NewSubject("a.jpg", checkstest.JPEG(checkstest.Portrait(200, 200)))
	out, err := checkFormat(ctx, jpg, snap)
	require.NoError(t, err)
	assert.True(t, out.Passed)

	snap.Formats = config.Formats{PNG: true}
	out, err = checkFormat(ctx, jpg, snap)
	require.NoError(t, err)
	assert.False(t, out.Passed, "jpeg must fail when only png is allowed")

	garbage := NewSubject("b.jpg", []byte("garbage"))
	out, err = checkFormat(ctx, garbage, config.DefaultSnapshot())
	require.NoError(t, err)
	assert.False(t, out.Passed)
}

func TestCheckSize(t *testing.T) {
	snap := config.DefaultSnapshot()
	snap.Thresholds.MinSizeKB = 50
	snap.Thresholds.MaxSizeKB = 100

	tests := []struct {
		name   string
		bytes  int64
		passed bool
	}{
		{"inside range", 75_000, true},
		{"within lower tolerance", 41_000, true},
		{"below tolerance", 39_000, false},
		{"within upper tolerance", 109_000, true},
		{"above tolerance", 111_000, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := checkSize(context.Background(), &Subject{SizeBytes: tc.bytes}, snap)
			require.NoError(t, err)
			assert.Equal(t, tc.passed, out.Passed)
			assert.InDelta(t, float64(tc.bytes)/1000, out.Measured, 0.001)
		})
	}
}

func TestCheckDimensions(t *testing.T) {
	snap := config.DefaultSnapshot()
	snap.Thresholds.MinWidth = 300
	snap.Thresholds.MaxWidth = 600
	snap.Thresholds.MinHeight = 300
	snap.Thresholds.MaxHeight = 600

	tests := []struct {
		name         string
		width        int
		height       int
		widthPassed  bool
		heightPassed bool
	}{
		{"both inside", 400, 500, true, true},
		{"narrow", 200, 400, false, true},
		{"short", 400, 200, true, false},
		{"tolerance", 291, 609, true, true},
		{"just outside tolerance", 289, 611, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &Subject{Width: tc.width, Height: tc.height}
			w, err := checkWidth(context.Background(), s, snap)
			require.NoError(t, err)
			h, err := checkHeight(context.Background(), s, snap)
			require.NoError(t, err)
			assert.Equal(t, tc.widthPassed, w.Passed, "width")
			assert.Equal(t, tc.heightPassed, h.Passed, "height")
		})
	}
}

func TestCheckDimensions_UnreadableHeader(t *testing.T) {
	s := NewSubject("x.jpg", []byte("garbage"))

	_, err := checkWidth(context.Background(), s, config.DefaultSnapshot())
	assert.ErrorIs(t, err, errNoHeader)

	r := NewRegistry(nil, nil)
	reports := r.Run(context.Background(), StageFile, s, config.DefaultSnapshot())
	var reasons []string
	for _, rep := range reports {
		if rep.Failed() {
			reasons = append(reasons, rep.Reason)
		}
	}
	assert.Equal(t, []string{
		ReasonFormat,
		"File height check error: image header unreadable",
		"File width check error: image header unreadable",
	}, reasons)
}
