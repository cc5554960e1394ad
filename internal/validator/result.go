package validator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/checks"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
)

// ProcessingErrorPrefix starts the reason of an image whose validation
// crashed outside the check boundary.
const ProcessingErrorPrefix = "Processing error: "

// Result is the verdict for one image. Valid is true exactly when Reasons
// is empty.
type Result struct {
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	Valid    bool            `json:"valid"`
	Reasons  []string        `json:"reasons,omitempty"`
	Duration time.Duration   `json:"duration"`
	Reports  []checks.Report `json:"reports,omitempty"`
}

func newResult(path string, reasons []string, reports []checks.Report, d time.Duration) Result {
	return Result{
		Name:     filepath.Base(path),
		Path:     path,
		Valid:    len(reasons) == 0,
		Reasons:  reasons,
		Duration: d,
		Reports:  reports,
	}
}

func processingError(path string, v any, d time.Duration) Result {
	return newResult(path, []string{fmt.Sprintf("%s%v", ProcessingErrorPrefix, v)}, nil, d)
}

// ValidateImage reads path and runs every enabled check on it.
func ValidateImage(ctx context.Context, path string, snap config.Snapshot, reg *checks.Registry) Result {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		rep := checks.Report{Check: "load", Error: (&Error{Kind: KindDecode, Op: "read", Path: path, Err: err}).Error()}
		rep.Reason = checks.ReasonLoad
		return newResult(path, []string{checks.ReasonLoad}, []checks.Report{rep}, time.Since(start))
	}
	r := ValidateData(ctx, path, data, snap, reg)
	r.Duration = time.Since(start)
	return r
}

// ValidateData runs the checks on already loaded bytes: the file stage,
// then decoding, then the pixel stage. A decode failure adds the load
// reason and skips the pixel stage.
func ValidateData(ctx context.Context, path string, data []byte, snap config.Snapshot, reg *checks.Registry) Result {
	start := time.Now()
	s := checks.NewSubject(path, data)

	reports := reg.Run(ctx, checks.StageFile, s, snap)

	if err := s.Load(); err != nil {
		rep := checks.Report{Check: "load", Error: (&Error{Kind: KindDecode, Op: "decode", Path: path, Err: err}).Error()}
		rep.Reason = checks.ReasonLoad
		reports = append(reports, rep)
	} else if s.Work == nil {
		rep := checks.Report{Check: "load", Error: "decoded image is empty"}
		rep.Reason = checks.ReasonCorrupted
		reports = append(reports, rep)
	} else {
		reports = append(reports, reg.Run(ctx, checks.StagePixel, s, snap)...)
	}

	var reasons []string
	for _, rep := range reports {
		if rep.Failed() {
			reasons = append(reasons, rep.Reason)
		}
	}
	return newResult(path, reasons, reports, time.Since(start))
}
