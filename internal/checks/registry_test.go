package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/checks/checkstest"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
)

func TestNewRegistry_Order(t *testing.T) {
	r := NewRegistry(nil, nil)

	assert.Equal(t, []string{
		"format", "size", "height", "width",
		"corrupted", "greyscale", "blur", "background",
		"head", "eye", "symmetry",
	}, r.Names())
}

func TestRegistry_RunStageFiltersAndOrders(t *testing.T) {
	r := NewRegistry(nil, nil)
	s := NewSubject("/in/a.jpg", checkstest.JPEG(checkstest.Portrait(300, 300)))

	reports := r.Run(context.Background(), StageFile, s, config.DefaultSnapshot())

	require.Len(t, reports, 4)
	for i, name := range []string{"format", "size", "height", "width"} {
		assert.Equal(t, name, reports[i].Check)
		assert.True(t, reports[i].Passed, "check %s should pass", name)
		assert.False(t, reports[i].Failed())
	}
}

func TestRegistry_BypassSkipsCheck(t *testing.T) {
	called := false
	r := NewCustomRegistry(nil, Check{
		Name:     "probe",
		Label:    "Probe",
		Reason:   "Probe check failed",
		Stage:    StageFile,
		Bypassed: func(b config.Bypass) bool { return b.Width },
		Run: func(context.Context, *Subject, config.Snapshot) (Outcome, error) {
			called = true
			return Outcome{Passed: false}, nil
		},
	})
	snap := config.DefaultSnapshot()
	snap.Bypass.Width = true

	reports := r.Run(context.Background(), StageFile, &Subject{Name: "a.jpg"}, snap)

	require.Len(t, reports, 1)
	assert.True(t, reports[0].Bypassed)
	assert.False(t, reports[0].Failed())
	assert.False(t, called, "bypassed check must not run")
}

func TestRegistry_DefaultReasonOnFailure(t *testing.T) {
	r := NewCustomRegistry(nil, Check{
		Name:   "probe",
		Label:  "Probe",
		Reason: "Probe check failed",
		Stage:  StageFile,
		Run: func(context.Context, *Subject, config.Snapshot) (Outcome, error) {
			return Outcome{Passed: false}, nil
		},
	})

	reports := r.Run(context.Background(), StageFile, &Subject{Name: "a.jpg"}, config.DefaultSnapshot())

	require.Len(t, reports, 1)
	assert.Equal(t, "Probe check failed", reports[0].Reason)
}

func TestRegistry_ErrorBecomesReason(t *testing.T) {
	r := NewCustomRegistry(nil, Check{
		Name:  "probe",
		Label: "Probe",
		Stage: StagePixel,
		Run: func(context.Context, *Subject, config.Snapshot) (Outcome, error) {
			return Outcome{}, errors.New("boom")
		},
	})

	reports := r.Run(context.Background(), StagePixel, &Subject{Name: "a.jpg"}, config.DefaultSnapshot())

	require.Len(t, reports, 1)
	assert.Equal(t, "Probe check error: boom", reports[0].Reason)
	assert.Equal(t, "boom", reports[0].Error)
}

func TestRegistry_PanicBecomesReason(t *testing.T) {
	r := NewCustomRegistry(nil,
		Check{
			Name:  "explode",
			Label: "Explode",
			Stage: StagePixel,
			Run: func(context.Context, *Subject, config.Snapshot) (Outcome, error) {
				panic("index out of range")
			},
		},
		Check{
			Name:  "after",
			Label: "After",
			Stage: StagePixel,
			Run: func(context.Context, *Subject, config.Snapshot) (Outcome, error) {
				return Outcome{Passed: true}, nil
			},
		},
	)

	reports := r.Run(context.Background(), StagePixel, &Subject{Name: "a.jpg"}, config.DefaultSnapshot())

	require.Len(t, reports, 2)
	assert.Equal(t, "Explode check error: index out of range", reports[0].Reason)
	assert.True(t, reports[1].Passed, "a panicking check must not stop later checks")
}

func TestRegistry_SkippedCountsAsPass(t *testing.T) {
	r := NewRegistry(nil, nil)
	s := NewSubject("/in/a.jpg", checkstest.JPEG(checkstest.Portrait(300, 300)))
	require.NoError(t, s.Load())

	reports := r.Run(context.Background(), StagePixel, s, config.DefaultSnapshot())

	var head, eye Report
	for _, rep := range reports {
		switch rep.Check {
		case "head":
			head = rep
		case "eye":
			eye = rep
		}
	}
	assert.True(t, head.Skipped)
	assert.True(t, head.Passed)
	assert.Equal(t, noDetectorNote, head.Note)
	assert.True(t, eye.Skipped)
	assert.False(t, head.Failed())
	assert.False(t, eye.Failed())
}

func TestRegistry_ChecksReturnsCopy(t *testing.T) {
	r := NewRegistry(nil, nil)

	list := r.Checks()
	list[0].Name = "changed"

	assert.Equal(t, "format", r.Names()[0])
}
