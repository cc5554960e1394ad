// Package telemetry holds the OpenTelemetry instruments of the validation
// pipeline. Without a configured MeterProvider they are no-ops.
package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Ashish-Pandey62/Photo-Validation-System/internal/validator"

var (
	imagesProcessed metric.Int64Counter
	checkFailures   metric.Int64Counter
	imageDuration   metric.Float64Histogram
	placementErrors metric.Int64Counter
	workerCount     metric.Int64Gauge
)

func init() {
	meter := otel.Meter(meterName)

	var err error

	imagesProcessed, err = meter.Int64Counter(
		"photovalidator.images.processed",
		metric.WithDescription("Number of images validated, by outcome"),
	)
	if err != nil {
		log.Fatalf("failed to create images.processed counter: %v", err)
	}

	checkFailures, err = meter.Int64Counter(
		"photovalidator.checks.failed",
		metric.WithDescription("Number of failed checks, by check name"),
	)
	if err != nil {
		log.Fatalf("failed to create checks.failed counter: %v", err)
	}

	imageDuration, err = meter.Float64Histogram(
		"photovalidator.image.duration",
		metric.WithDescription("Time spent validating one image"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Fatalf("failed to create image.duration histogram: %v", err)
	}

	placementErrors, err = meter.Int64Counter(
		"photovalidator.placement.errors",
		metric.WithDescription("Number of failed moves or log appends, by kind"),
	)
	if err != nil {
		log.Fatalf("failed to create placement.errors counter: %v", err)
	}

	workerCount, err = meter.Int64Gauge(
		"photovalidator.workers",
		metric.WithDescription("Worker pool size of the current batch"),
	)
	if err != nil {
		log.Fatalf("failed to create workers gauge: %v", err)
	}
}

// RecordImage counts one validated image and its duration.
func RecordImage(ctx context.Context, valid bool, seconds float64) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	imagesProcessed.Add(ctx, 1, attrs)
	imageDuration.Record(ctx, seconds, attrs)
}

// RecordCheckFailure counts one failed check.
func RecordCheckFailure(ctx context.Context, check string) {
	checkFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("check", check)))
}

// RecordPlacementError counts one bookkeeping failure of the given kind.
func RecordPlacementError(ctx context.Context, kind string) {
	placementErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordWorkers records the pool size used for a batch.
func RecordWorkers(ctx context.Context, n int) {
	workerCount.Record(ctx, int64(n))
}
