package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/spf13/cobra"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/resources"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/workers"
)

var sysinfoCmd = &cobra.Command{
	Use:   "sysinfo",
	Short: "Show host capacity and the worker pool sizing it implies",
	Args:  cobra.NoArgs,
	RunE:  runSysinfo,
}

func init() {
	rootCmd.AddCommand(sysinfoCmd)
	sysinfoCmd.Flags().Bool("json", false, "Output as JSON")
}

// SysinfoOutput is the --json document.
type SysinfoOutput struct {
	Hostname        string  `json:"hostname,omitempty"`
	Platform        string  `json:"platform,omitempty"`
	CPUModel        string  `json:"cpu_model,omitempty"`
	Cores           int     `json:"cores"`
	TotalMemory     uint64  `json:"total_memory"`
	AvailableMemory uint64  `json:"available_memory"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	InitialWorkers  int     `json:"initial_workers"`
	MinWorkers      int     `json:"min_workers"`
	MaxWorkers      int     `json:"max_workers"`
}

func runSysinfo(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	probe := resources.HostProbe{}
	capacity, err := probe.Capacity(ctx)
	if err != nil {
		return fmt.Errorf("failed to read host capacity: %w", err)
	}
	cpuPct, memPct, err := probe.Utilization(ctx)
	if err != nil {
		return fmt.Errorf("failed to read host utilization: %w", err)
	}

	opts := workers.Options{Min: cfg.Workers.Min, Max: cfg.Workers.Max}
	lo, hi := workers.Bounds(capacity, opts)
	out := SysinfoOutput{
		Cores:           capacity.Cores,
		TotalMemory:     capacity.TotalMemory,
		AvailableMemory: capacity.AvailableMemory,
		CPUPercent:      cpuPct,
		MemoryPercent:   memPct,
		InitialWorkers:  workers.Initial(capacity, opts),
		MinWorkers:      lo,
		MaxWorkers:      hi,
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		out.Hostname = info.Hostname
		out.Platform = fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		out.CPUModel = infos[0].ModelName
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(out)
	}

	fmt.Printf("Host:      %s %s\n", out.Hostname, out.Platform)
	fmt.Printf("CPU:       %d cores %s (%.1f%% busy)\n", out.Cores, out.CPUModel, out.CPUPercent)
	fmt.Printf("Memory:    %s total, %s available (%.1f%% used)\n",
		formatBytes(out.TotalMemory), formatBytes(out.AvailableMemory), out.MemoryPercent)
	fmt.Printf("Workers:   start %d, range %d-%d\n", out.InitialWorkers, out.MinWorkers, out.MaxWorkers)
	return nil
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
