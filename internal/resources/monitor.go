// Package resources samples host CPU and memory utilization into a bounded
// rolling window.
package resources

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
)

// Sample is one utilization reading.
type Sample struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	Timestamp     time.Time `json:"timestamp"`
}

// Series summarizes one metric over the window.
type Series struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
}

// Stats summarizes the samples currently in the window.
type Stats struct {
	CPU    Series `json:"cpu"`
	Memory Series `json:"memory"`
	Count  int    `json:"count"`
}

// Monitor owns one sampling goroutine. The ring is written only by that
// goroutine and copied on read.
type Monitor struct {
	probe    Probe
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	ring    []Sample
	next    int
	count   int
	stopped bool

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the sampling period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithWindow sets the ring capacity.
func WithWindow(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.ring = make([]Sample, n)
		}
	}
}

// NewMonitor creates a stopped monitor. A nil probe records no samples.
func NewMonitor(probe Probe, logger *slog.Logger, opts ...Option) *Monitor {
	if probe == nil {
		probe = NoopProbe{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		probe:    probe,
		interval: constants.SampleInterval,
		logger:   logger.With("component", "resource-monitor"),
		ring:     make([]Sample, constants.SampleWindow),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the sampler. Calling it more than once, or after Stop, has
// no effect.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			close(m.done)
			return
		}
		ctx, m.cancel = context.WithCancel(ctx)
		m.mu.Unlock()
		go m.run(ctx)
	})
}

// Stop halts sampling and waits up to the stop timeout for the goroutine to
// exit. No sample is recorded after Stop returns. Safe to call repeatedly.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		cancel := m.cancel
		m.mu.Unlock()

		if cancel == nil {
			return
		}
		cancel()
		select {
		case <-m.done:
		case <-time.After(constants.MonitorStopTimeout):
			m.logger.Warn("sampler did not exit in time", "timeout", constants.MonitorStopTimeout)
		}
	})
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

func (m *Monitor) sample(ctx context.Context) {
	cpuPct, memPct, err := m.probe.Utilization(ctx)
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, ErrUnavailable) {
			m.logger.Debug("sample failed", "error", err)
		}
		return
	}
	m.record(Sample{CPUPercent: cpuPct, MemoryPercent: memPct, Timestamp: time.Now()})
}

func (m *Monitor) record(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.ring[m.next] = s
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
}

// Samples returns the window oldest first.
func (m *Monitor) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, 0, m.count)
	start := (m.next - m.count + len(m.ring)) % len(m.ring)
	for i := range m.count {
		out = append(out, m.ring[(start+i)%len(m.ring)])
	}
	return out
}

// Latest returns the newest sample, if any.
func (m *Monitor) Latest() (Sample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count == 0 {
		return Sample{}, false
	}
	return m.ring[(m.next-1+len(m.ring))%len(m.ring)], true
}

// Stats summarizes the window. The boolean is false when no sample has been
// taken yet, which is different from an idle host.
func (m *Monitor) Stats() (Stats, bool) {
	return Summarize(m.Samples())
}

// Summarize computes Stats over samples in chronological order.
func Summarize(samples []Sample) (Stats, bool) {
	if len(samples) == 0 {
		return Stats{}, false
	}
	var st Stats
	for _, s := range samples {
		st.CPU.Average += s.CPUPercent
		st.Memory.Average += s.MemoryPercent
		st.CPU.Max = max(st.CPU.Max, s.CPUPercent)
		st.Memory.Max = max(st.Memory.Max, s.MemoryPercent)
	}
	n := float64(len(samples))
	st.CPU.Average /= n
	st.Memory.Average /= n
	last := samples[len(samples)-1]
	st.CPU.Current = last.CPUPercent
	st.Memory.Current = last.MemoryPercent
	st.Count = len(samples)
	return st, true
}

// Capacity asks the probe for host capacity.
func (m *Monitor) Capacity(ctx context.Context) (Capacity, error) {
	return m.probe.Capacity(ctx)
}
