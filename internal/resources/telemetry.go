package resources

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Ashish-Pandey62/Photo-Validation-System/internal/resources"

// RegisterGauges exports the newest sample of m as observable gauges.
func RegisterGauges(m *Monitor) error {
	meter := otel.Meter(meterName)

	_, err := meter.Float64ObservableGauge(
		"photovalidator.host.cpu_percent",
		metric.WithDescription("Most recent host CPU utilization sample"),
		metric.WithUnit("%"),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			if s, ok := m.Latest(); ok {
				o.Observe(s.CPUPercent)
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create cpu_percent gauge: %w", err)
	}

	_, err = meter.Float64ObservableGauge(
		"photovalidator.host.memory_percent",
		metric.WithDescription("Most recent host memory utilization sample"),
		metric.WithUnit("%"),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			if s, ok := m.Latest(); ok {
				o.Observe(s.MemoryPercent)
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create memory_percent gauge: %w", err)
	}
	return nil
}
