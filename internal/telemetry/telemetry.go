// Package telemetry exposes the downloader's OpenTelemetry metrics through
// a Prometheus endpoint. All recorders are nil-safe so the scraper can run
// with telemetry disabled.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"go.opentelemetry.io/otel/exporters/prometheus"
)

// Telemetry holds the meter provider and the pipeline's instruments.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	downloadsTotal  metric.Int64Counter
	downloadsActive metric.Int64UpDownCounter
}

// Config holds telemetry configuration.
type Config struct {
	Enabled     bool
	ServiceName string
}

// New creates a telemetry instance backed by a Prometheus exporter.
// With Enabled false every recorder is a no-op.
func New(cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return &Telemetry{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(meterProvider)

	// Go runtime metrics (heap, GC, goroutines) on the same exporter.
	if err := runtime.Start(); err != nil {
		return nil, fmt.Errorf("failed to start runtime instrumentation: %w", err)
	}

	t := &Telemetry{
		meterProvider: meterProvider,
		meter:         otel.Meter(cfg.ServiceName),
	}

	if err := t.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return t, nil
}

func (t *Telemetry) initializeMetrics() error {
	var err error

	if t.downloadsTotal, err = t.meter.Int64Counter("videos_downloaded_total",
		metric.WithDescription("Video downloads by final status")); err != nil {
		return err
	}

	if t.downloadsActive, err = t.meter.Int64UpDownCounter("downloads_active",
		metric.WithDescription("Downloads currently in flight")); err != nil {
		return err
	}

	return nil
}

// Handler returns the Prometheus scrape handler, or nil when telemetry
// is disabled so the caller skips the metrics route.
func (t *Telemetry) Handler() http.Handler {
	if t == nil || t.meterProvider == nil {
		return nil
	}

	return promhttp.Handler()
}

// RecordDownload counts one finished download. Status is bounded
// ("success" or "failed") to keep metric cardinality low.
func (t *Telemetry) RecordDownload(ctx context.Context, status string) {
	if t == nil || t.downloadsTotal == nil {
		return
	}

	t.downloadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// AddDownloadsActive moves the in-flight gauge by delta.
func (t *Telemetry) AddDownloadsActive(ctx context.Context, delta int64) {
	if t == nil || t.downloadsActive == nil {
		return
	}

	t.downloadsActive.Add(ctx, delta)
}

// Shutdown flushes the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.meterProvider == nil {
		return nil
	}

	return t.meterProvider.Shutdown(ctx)
}
