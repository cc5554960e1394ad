package resources

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// ErrUnavailable is returned by probes that cannot read utilization. The
// monitor records no sample for it.
var ErrUnavailable = errors.New("host metrics unavailable")

// Capacity describes the host the pipeline runs on.
type Capacity struct {
	Cores           int    `json:"cores"`
	TotalMemory     uint64 `json:"total_memory"`
	AvailableMemory uint64 `json:"available_memory"`
}

// Probe reads host utilization. Implementations must be safe to call from
// the monitor goroutine while another goroutine calls Capacity.
type Probe interface {
	Utilization(ctx context.Context) (cpuPercent, memPercent float64, err error)
	Capacity(ctx context.Context) (Capacity, error)
}

// HostProbe reads the local machine through gopsutil.
type HostProbe struct{}

// Utilization returns CPU usage since the previous call and the share of
// physical memory in use.
func (HostProbe) Utilization(ctx context.Context) (float64, float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, 0, fmt.Errorf("cpu percent: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("virtual memory: %w", err)
	}
	var cpuPercent float64
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}
	return cpuPercent, vm.UsedPercent, nil
}

// Capacity returns logical cores and memory totals, capped at GOMAXPROCS and
// the Go memory limit so a container budget wins over the host's size.
func (HostProbe) Capacity(ctx context.Context) (Capacity, error) {
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores <= 0 {
		cores = runtime.NumCPU()
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return runtimeBudget(Capacity{Cores: cores}), fmt.Errorf("virtual memory: %w", err)
	}
	return runtimeBudget(Capacity{Cores: cores, TotalMemory: vm.Total, AvailableMemory: vm.Available}), nil
}

func runtimeBudget(c Capacity) Capacity {
	c.Cores = min(c.Cores, runtime.GOMAXPROCS(0))
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
		c.TotalMemory = min(c.TotalMemory, uint64(limit))
		c.AvailableMemory = min(c.AvailableMemory, uint64(limit))
	}
	return c
}

// NoopProbe reports a fixed capacity and no utilization. It is used where
// host metrics are unavailable and in tests.
type NoopProbe struct {
	Cores  int
	Memory uint64
}

// Utilization always fails with ErrUnavailable.
func (NoopProbe) Utilization(context.Context) (float64, float64, error) {
	return 0, 0, ErrUnavailable
}

func (p NoopProbe) Capacity(context.Context) (Capacity, error) {
	cores := p.Cores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	return Capacity{Cores: cores, TotalMemory: p.Memory, AvailableMemory: p.Memory}, nil
}
