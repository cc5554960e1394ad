// Package workers sizes the validation worker pool from host capacity and
// adjusts it from observed utilization.
package workers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/resources"
)

// Options bound and tune the manager. Zero values take the defaults.
type Options struct {
	Min             int
	Max             int
	CoreRatio       float64
	MemoryFloor     uint64
	History         int
	MinObservations int
}

func (o Options) withDefaults(cores int) Options {
	if o.Max <= 0 {
		o.Max = min(constants.MaxWorkersCap, max(cores, 1))
	}
	if o.Min <= 0 {
		o.Min = constants.MinWorkers
	}
	if o.Min > o.Max {
		o.Min = o.Max
	}
	if o.CoreRatio <= 0 {
		o.CoreRatio = constants.InitialCoreRatio
	}
	if o.MemoryFloor == 0 {
		o.MemoryFloor = constants.LowMemoryThreshold
	}
	if o.History <= 0 {
		o.History = constants.WorkerHistorySize
	}
	if o.MinObservations <= 0 {
		o.MinObservations = constants.MinObservations
	}
	if o.MinObservations > o.History {
		o.MinObservations = o.History
	}
	return o
}

// Observation is one performance reading fed to the manager.
type Observation struct {
	CPU    float64   `json:"cpu"`
	Memory float64   `json:"memory"`
	Rate   float64   `json:"rate"`
	At     time.Time `json:"at"`
}

// State is the pool size with its bounds.
type State struct {
	Current int `json:"current"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// Decision is the outcome of one adaptation check.
type Decision int

const (
	Hold Decision = iota
	Grow
	Shrink
)

func (d Decision) String() string {
	switch d {
	case Grow:
		return "grow"
	case Shrink:
		return "shrink"
	default:
		return "hold"
	}
}

// Manager holds the worker count. Only Observe changes it, and by at most
// one per adaptation check.
type Manager struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	current int
	peak    int
	history []Observation
	pending int
}

// Initial derives the starting pool size: a share of the cores, halved when
// available memory is below the floor, clamped to the bounds.
func Initial(c resources.Capacity, opts Options) int {
	opts = opts.withDefaults(c.Cores)
	n := int(float64(c.Cores) * opts.CoreRatio)
	if c.AvailableMemory > 0 && c.AvailableMemory < opts.MemoryFloor {
		n /= 2
	}
	return clamp(n, opts.Min, opts.Max)
}

// Bounds returns the pool bounds that apply on a host of capacity c.
func Bounds(c resources.Capacity, opts Options) (lo, hi int) {
	opts = opts.withDefaults(c.Cores)
	return opts.Min, opts.Max
}

// NewManager sizes the pool for the given host.
func NewManager(c resources.Capacity, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	resolved := opts.withDefaults(c.Cores)
	current := Initial(c, opts)
	m := &Manager{
		opts:    resolved,
		logger:  logger.With("component", "worker-manager"),
		current: current,
		peak:    current,
	}
	m.logger.Info("worker pool sized",
		"workers", current,
		"min", resolved.Min,
		"max", resolved.Max,
		"cores", c.Cores,
		"available_memory", c.AvailableMemory,
	)
	return m
}

// Observe records o and, once enough observations have accumulated since the
// last check, averages the most recent ones and steps the pool size.
func (m *Manager) Observe(o Observation) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, o)
	if len(m.history) > m.opts.History {
		m.history = m.history[len(m.history)-m.opts.History:]
	}
	m.pending++
	if m.pending < m.opts.MinObservations {
		return Hold
	}
	m.pending = 0

	recent := m.history[len(m.history)-m.opts.MinObservations:]
	var cpu, memory float64
	for _, r := range recent {
		cpu += r.CPU
		memory += r.Memory
	}
	cpu /= float64(len(recent))
	memory /= float64(len(recent))

	decision := decide(cpu, memory)
	prev := m.current
	switch decision {
	case Grow:
		m.current = min(m.current+1, m.opts.Max)
	case Shrink:
		m.current = max(m.current-1, m.opts.Min)
	}
	m.peak = max(m.peak, m.current)

	if m.current != prev {
		m.logger.Info("worker pool resized",
			"from", prev,
			"to", m.current,
			"avg_cpu", cpu,
			"avg_memory", memory,
			"rate", o.Rate,
		)
		return decision
	}
	return Hold
}

func decide(cpu, memory float64) Decision {
	switch {
	case cpu > constants.ScaleDownCPU || memory > constants.ScaleDownMemory:
		return Shrink
	case cpu < constants.ScaleUpCPU && memory < constants.ScaleUpMemory:
		return Grow
	default:
		return Hold
	}
}

// Current returns the worker count for the next pool.
func (m *Manager) Current() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Peak returns the largest worker count used so far.
func (m *Manager) Peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// State returns the current size and bounds.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Current: m.current, Min: m.opts.Min, Max: m.opts.Max}
}

// History returns the retained observations oldest first.
func (m *Manager) History() []Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Observation, len(m.history))
	copy(out, m.history)
	return out
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
