package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/fieldcrypt/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the global OpenTelemetry meter provider with an OTLP
// HTTP exporter. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names.
const (
	MetricFieldsEncrypted = "fieldcrypt.fields.encrypted"
	MetricFieldsDecrypted = "fieldcrypt.fields.decrypted"
	MetricFieldsSkipped   = "fieldcrypt.fields.skipped"
	MetricErrors          = "fieldcrypt.errors"
	MetricCycleDuration   = "fieldcrypt.cycle.duration"
)

// Metrics holds the instruments recorded by the encryption coordinator.
type Metrics struct {
	fieldsEncrypted metric.Int64Counter
	fieldsDecrypted metric.Int64Counter
	fieldsSkipped   metric.Int64Counter
	errorTotal      metric.Int64Counter
	cycleDuration   metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	fieldsEncrypted, err := meter.Int64Counter(MetricFieldsEncrypted,
		metric.WithDescription("Fields encrypted before write"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFieldsEncrypted, err)
	}

	fieldsDecrypted, err := meter.Int64Counter(MetricFieldsDecrypted,
		metric.WithDescription("Fields decrypted after load"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFieldsDecrypted, err)
	}

	fieldsSkipped, err := meter.Int64Counter(MetricFieldsSkipped,
		metric.WithDescription("Nullable fields left null without a cipher call"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFieldsSkipped, err)
	}

	errorTotal, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Crypt failures by phase and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrors, err)
	}

	cycleDuration, err := meter.Float64Histogram(MetricCycleDuration,
		metric.WithDescription("Duration of a lifecycle hook in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricCycleDuration, err)
	}

	return &Metrics{
		fieldsEncrypted: fieldsEncrypted,
		fieldsDecrypted: fieldsDecrypted,
		fieldsSkipped:   fieldsSkipped,
		errorTotal:      errorTotal,
		cycleDuration:   cycleDuration,
	}, nil
}

// RecordEncrypted adds n encrypted fields for typeName.
func (m *Metrics) RecordEncrypted(ctx context.Context, typeName string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.fieldsEncrypted.Add(ctx, int64(n), metric.WithAttributes(attribute.String(AttrType, typeName)))
}

// RecordDecrypted adds n decrypted fields for typeName.
func (m *Metrics) RecordDecrypted(ctx context.Context, typeName string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.fieldsDecrypted.Add(ctx, int64(n), metric.WithAttributes(attribute.String(AttrType, typeName)))
}

// RecordSkipped adds n null fields skipped for typeName in phase.
func (m *Metrics) RecordSkipped(ctx context.Context, phase, typeName string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.fieldsSkipped.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String(AttrPhase, phase),
		attribute.String(AttrType, typeName),
	))
}

// RecordError records a failure in phase with an error code.
func (m *Metrics) RecordError(ctx context.Context, phase, code string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPhase, phase),
		attribute.String(AttrErrorCode, code),
	))
}

// RecordCycle records the duration of one hook invocation.
func (m *Metrics) RecordCycle(ctx context.Context, phase, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrPhase, phase),
		attribute.String(AttrStatus, status),
	))
}
