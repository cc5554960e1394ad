// Package placement moves validated images to their destination directories
// and records rejected ones in the result log.
package placement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
)

// Status describes what a move did.
type Status int

const (
	Moved Status = iota
	AlreadyPlaced
	SourceMissing
)

func (s Status) String() string {
	switch s {
	case AlreadyPlaced:
		return "already-placed"
	case SourceMissing:
		return "source-missing"
	default:
		return "moved"
	}
}

// Writer places the images of one input directory. Moves and log appends
// are serialized separately and never held across check execution.
type Writer struct {
	inputDir   string
	validDir   string
	invalidDir string
	log        *Log
	logger     *slog.Logger

	moveMu sync.Mutex
	logMu  sync.Mutex
	logged mapset.Set[string]

	sleep func(time.Duration)
}

// NewWriter targets <inputDir>/valid for accepted images and invalidDir for
// rejected ones. A relative invalidDir is used as given.
func NewWriter(inputDir, invalidDir string, log *Log, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if invalidDir == "" {
		invalidDir = filepath.Join(inputDir, constants.DefaultInvalidDir)
	}
	return &Writer{
		inputDir:   inputDir,
		validDir:   filepath.Join(inputDir, constants.ValidDirName),
		invalidDir: invalidDir,
		log:        log,
		logger:     logger.With("component", "placement"),
		logged:     mapset.NewThreadUnsafeSet[string](),
		sleep:      time.Sleep,
	}
}

// ValidDir returns the destination of accepted images.
func (w *Writer) ValidDir() string { return w.validDir }

// InvalidDir returns the holding directory of rejected images.
func (w *Writer) InvalidDir() string { return w.invalidDir }

// Log returns the result log.
func (w *Writer) Log() *Log { return w.log }

// PlaceValid moves src into the valid directory.
func (w *Writer) PlaceValid(src string) (Status, error) {
	return w.move(src, w.validDir)
}

// PlaceInvalid moves src into the holding directory.
func (w *Writer) PlaceInvalid(src string) (Status, error) {
	return w.move(src, w.invalidDir)
}

// Record appends the failure row for name once per writer. It reports
// whether a row was written.
func (w *Writer) Record(name string, reasons []string) (bool, error) {
	key := NormalizeName(name)
	w.logMu.Lock()
	defer w.logMu.Unlock()
	if w.logged.Contains(key) {
		return false, nil
	}
	if err := w.log.Append(name, reasons); err != nil {
		return false, err
	}
	w.logged.Add(key)
	return true, nil
}

// move is idempotent: an existing destination is treated as already placed
// and a vanished source is reported, not failed.
func (w *Writer) move(src, dstDir string) (Status, error) {
	dst := filepath.Join(dstDir, filepath.Base(src))

	w.moveMu.Lock()
	defer w.moveMu.Unlock()

	if _, err := os.Stat(dst); err == nil {
		w.logger.Debug("destination exists, skipping move", "src", src, "dst", dst)
		return AlreadyPlaced, nil
	}
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		w.logger.Warn("source vanished before placement", "src", src)
		return SourceMissing, nil
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return Moved, fmt.Errorf("create %s: %w", dstDir, err)
	}

	var err error
	for attempt := range constants.MoveRetries {
		if attempt > 0 {
			w.sleep(constants.MoveRetryDelay)
		}
		if err = moveFile(src, dst); err == nil {
			return Moved, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("source vanished during placement", "src", src)
			return SourceMissing, nil
		}
		w.logger.Debug("move attempt failed", "src", src, "attempt", attempt+1, "error", err)
	}
	return Moved, fmt.Errorf("move %s to %s: %w", src, dst, err)
}

// moveFile renames src to dst and falls back to copy and delete across
// filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// RestoreReport lists what a restore did.
type RestoreReport struct {
	Restored    []string `json:"restored"`
	Missing     []string `json:"missing"`
	RowsRemoved int      `json:"rows_removed"`
}

// Restore moves the named images from the holding directory into the valid
// directory and drops their rows from the log.
func (w *Writer) Restore(names []string) (RestoreReport, error) {
	var report RestoreReport
	var errs *multierror.Error
	for _, name := range names {
		base := filepath.Base(name)
		if base != name || base == "." || base == string(filepath.Separator) {
			errs = multierror.Append(errs, fmt.Errorf("invalid image name %q", name))
			continue
		}
		status, err := w.move(filepath.Join(w.invalidDir, base), w.validDir)
		switch {
		case err != nil:
			errs = multierror.Append(errs, err)
		case status == SourceMissing:
			report.Missing = append(report.Missing, base)
		default:
			report.Restored = append(report.Restored, base)
		}
	}

	removed, err := w.log.Remove(report.Restored)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	report.RowsRemoved = removed
	if len(report.Restored) > 0 {
		w.logger.Info("images restored", "count", len(report.Restored), "missing", len(report.Missing))
	}
	return report, errs.ErrorOrNil()
}

// ArchiveReport lists what an archive did.
type ArchiveReport struct {
	Moved   int    `json:"moved"`
	LogCopy string `json:"log_copy"`
}

// Archive moves every image left in the holding directory to
// <input>/invalid, copies the log to <input>/results.csv and clears it.
func (w *Writer) Archive() (ArchiveReport, error) {
	report := ArchiveReport{LogCopy: filepath.Join(w.inputDir, "results.csv")}
	target := filepath.Join(w.inputDir, constants.DefaultInvalidDir)

	if filepath.Clean(target) != filepath.Clean(w.invalidDir) {
		entries, err := os.ReadDir(w.invalidDir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return report, fmt.Errorf("read holding directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !IsImage(e.Name()) {
				continue
			}
			status, err := w.move(filepath.Join(w.invalidDir, e.Name()), target)
			if err != nil {
				return report, err
			}
			if status == Moved {
				report.Moved++
			}
		}
	}

	if err := w.log.CopyTo(report.LogCopy); err != nil {
		return report, err
	}
	return report, w.log.Clear()
}

// Export writes a report covering both outcomes: every image in the valid
// directory and every row of the log.
func (w *Writer) Export(out io.Writer) error {
	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"Image Name", "Status", "Validation Issues", "User Action"}); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.validDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read valid directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		if err := cw.Write([]string{e.Name(), "VALID", "Passed all checks", "Computer validated"}); err != nil {
			return err
		}
	}

	rows, err := w.log.Rows()
	if err != nil {
		return err
	}
	for _, r := range rows {
		issues := strings.Join(r.Reasons, ", ")
		if issues == "" {
			issues = "Unknown issues"
		}
		if err := cw.Write([]string{r.Name, "INVALID", issues, "Needs review"}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// IsImage reports whether name has one of the accepted image extensions.
func IsImage(name string) bool {
	return constants.ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the image files directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}
