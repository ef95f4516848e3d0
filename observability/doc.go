// Package observability provides OpenTelemetry metrics and tracing for field
// encryption cycles.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("billing"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("billing"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("billing"))
//	coord := fieldcrypt.NewCoordinator(enc, fieldcrypt.WithMetrics(metrics))
//
// All Metrics methods are safe on a nil receiver so callers may leave
// metrics unconfigured.
package observability
