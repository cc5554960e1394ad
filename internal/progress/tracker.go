// Package progress counts processed images and derives throughput figures.
package progress

import (
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
)

// Snapshot is a point-in-time view of a Tracker.
type Snapshot struct {
	Total      int           `json:"total"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Processed  int           `json:"processed"`
	Elapsed    time.Duration `json:"elapsed"`
	Rate       float64       `json:"rate"`
	ETA        time.Duration `json:"eta"`
	Percentage float64       `json:"percentage"`
}

// Done reports whether every item has been counted.
func (s Snapshot) Done() bool {
	return s.Total > 0 && s.Processed >= s.Total
}

// LogValue groups the snapshot for structured logging.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("processed", s.Processed),
		slog.Int("total", s.Total),
		slog.Int("valid", s.Completed),
		slog.Int("invalid", s.Failed),
		slog.String("percent", strconv.FormatFloat(s.Percentage, 'f', 1, 64)),
		slog.String("rate", strconv.FormatFloat(s.Rate, 'f', 1, 64)),
		slog.Duration("eta", s.ETA.Round(time.Second)),
	)
}

// Tracker is safe for concurrent use. Increment never blocks beyond the
// atomic update.
type Tracker struct {
	total     int64
	completed atomic.Int64
	failed    atomic.Int64

	start    time.Time
	interval time.Duration
	lastLog  atomic.Int64 // unix nanos
	finished atomic.Bool

	now func() time.Time
}

// NewTracker starts the clock for total items. A non-positive interval uses
// the default log interval.
func NewTracker(total int, interval time.Duration) *Tracker {
	return newTracker(total, interval, time.Now)
}

func newTracker(total int, interval time.Duration, now func() time.Time) *Tracker {
	if interval <= 0 {
		interval = constants.ProgressLogInterval
	}
	t := &Tracker{
		total:    int64(max(total, 0)),
		interval: interval,
		now:      now,
	}
	t.start = now()
	t.lastLog.Store(t.start.UnixNano())
	return t
}

// Increment counts one item as valid (success) or invalid.
func (t *Tracker) Increment(success bool) {
	if success {
		t.completed.Add(1)
	} else {
		t.failed.Add(1)
	}
}

// Snapshot computes rate, ETA and percentage from the current counters.
func (t *Tracker) Snapshot() Snapshot {
	completed := int(t.completed.Load())
	failed := int(t.failed.Load())
	processed := completed + failed
	elapsed := t.now().Sub(t.start)

	s := Snapshot{
		Total:     int(t.total),
		Completed: completed,
		Failed:    failed,
		Processed: processed,
		Elapsed:   elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.Rate = float64(processed) / secs
	}
	if s.Rate > 0 && s.Total > processed {
		s.ETA = time.Duration(float64(s.Total-processed) / s.Rate * float64(time.Second))
	}
	if s.Total > 0 {
		s.Percentage = 100 * float64(processed) / float64(s.Total)
	}
	return s
}

// ShouldLog returns true at most once per interval, and once more when the
// last item has been counted. Concurrent callers race on a CAS so only one
// of them wins each window.
func (t *Tracker) ShouldLog() bool {
	processed := t.completed.Load() + t.failed.Load()
	if t.total > 0 && processed >= t.total {
		return t.finished.CompareAndSwap(false, true)
	}

	now := t.now().UnixNano()
	last := t.lastLog.Load()
	if now-last < int64(t.interval) {
		return false
	}
	return t.lastLog.CompareAndSwap(last, now)
}
