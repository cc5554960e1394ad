// Package checks holds the image quality predicates and the registry that
// runs them in a fixed order.
package checks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
)

// Stage tells whether a check needs only the encoded file or decoded pixels.
type Stage int

const (
	StageFile Stage = iota
	StagePixel
)

func (s Stage) String() string {
	if s == StageFile {
		return "file"
	}
	return "pixel"
}

// Outcome is the result of one check. A failed outcome without a Reason
// gets the check's default reason.
type Outcome struct {
	Passed    bool               `json:"passed"`
	Skipped   bool               `json:"skipped,omitempty"`
	Reason    string             `json:"reason,omitempty"`
	Note      string             `json:"note,omitempty"`
	Measured  float64            `json:"measured,omitempty"`
	Threshold float64            `json:"threshold,omitempty"`
	Details   map[string]float64 `json:"details,omitempty"`
}

// Report records how a check ran for one image.
type Report struct {
	Check    string `json:"check"`
	Bypassed bool   `json:"bypassed,omitempty"`
	Error    string `json:"error,omitempty"`
	Outcome
}

// Failed reports whether the check contributes a failure reason.
func (r Report) Failed() bool {
	return r.Reason != ""
}

// RunFunc evaluates one check against a subject.
type RunFunc func(ctx context.Context, s *Subject, snap config.Snapshot) (Outcome, error)

// Check is a named predicate with its bypass flag.
type Check struct {
	Name     string
	Label    string // prefix of "<Label> check error: ..." reasons
	Reason   string // default failure reason
	Stage    Stage
	Bypassed func(config.Bypass) bool
	Run      RunFunc
}

// Registry runs checks in registration order.
type Registry struct {
	checks []Check
	logger *slog.Logger
	warned sync.Map
}

// NewRegistry returns the standard checks in their documented order:
// format, size, height, width, corruption, greyscale, blur, background,
// head, eye, symmetry. Head and eye checks are skipped when detector is nil.
func NewRegistry(detector FaceDetector, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger.With("component", "checks")}
	r.checks = append(r.checks, fileChecks()...)
	r.checks = append(r.checks, pixelChecks()...)
	r.checks = append(r.checks, faceChecks(detector)...)
	r.checks = append(r.checks, symmetryCheck())
	return r
}

// NewCustomRegistry builds a registry from an explicit check list.
func NewCustomRegistry(logger *slog.Logger, checks ...Check) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{checks: checks, logger: logger.With("component", "checks")}
}

// Checks returns a copy of the registered checks.
func (r *Registry) Checks() []Check {
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// Names returns the check names in run order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.checks))
	for i, c := range r.checks {
		names[i] = c.Name
	}
	return names
}

// Run evaluates every check of the given stage in order. It never panics
// and never returns an error: failures become reports with a reason.
func (r *Registry) Run(ctx context.Context, stage Stage, s *Subject, snap config.Snapshot) []Report {
	var reports []Report
	for _, c := range r.checks {
		if c.Stage != stage {
			continue
		}
		if c.Bypassed != nil && c.Bypassed(snap.Bypass) {
			reports = append(reports, Report{Check: c.Name, Bypassed: true})
			continue
		}
		rep := r.runOne(ctx, c, s, snap)
		if rep.Skipped {
			r.warnOnce(c.Name, rep.Note)
		}
		reports = append(reports, rep)
	}
	return reports
}

func (r *Registry) runOne(ctx context.Context, c Check, s *Subject, snap config.Snapshot) (rep Report) {
	rep.Check = c.Name
	defer func() {
		if v := recover(); v != nil {
			rep.Outcome = Outcome{}
			rep.Error = fmt.Sprintf("panic: %v", v)
			rep.Reason = fmt.Sprintf("%s check error: %v", c.Label, v)
			r.logger.Error("check panicked", "check", c.Name, "image", s.Name, "panic", v)
		}
	}()

	out, err := c.Run(ctx, s, snap)
	if err != nil {
		rep.Error = err.Error()
		rep.Reason = fmt.Sprintf("%s check error: %v", c.Label, err)
		r.logger.Warn("check failed to evaluate", "check", c.Name, "image", s.Name, "error", err)
		return rep
	}
	rep.Outcome = out
	switch {
	case out.Skipped:
		rep.Passed = true
		rep.Reason = ""
	case out.Passed:
		rep.Reason = ""
	case rep.Reason == "":
		rep.Reason = c.Reason
	}
	return rep
}

func (r *Registry) warnOnce(name, note string) {
	if _, loaded := r.warned.LoadOrStore(name, true); !loaded {
		r.logger.Warn("check skipped", "check", name, "note", note)
	}
}
