package observability

import (
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NewNoopTracer creates a tracer that does nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{
		tracer: tracenoop.NewTracerProvider().Tracer(""),
	}
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("")
	m := &Metrics{}

	// Note: noop meter never returns errors, but we must check them to satisfy the linter.
	m.parseCount, _ = meter.Int64Counter("tsl.parse.count")         //nolint:errcheck
	m.parseErrors, _ = meter.Int64Counter("tsl.parse.errors")       //nolint:errcheck
	m.evaluateCount, _ = meter.Int64Counter("tsl.evaluate.count")   //nolint:errcheck
	m.evaluateErrors, _ = meter.Int64Counter("tsl.evaluate.errors") //nolint:errcheck

	return m
}
