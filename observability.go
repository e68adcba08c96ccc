package tsl

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nlstn/go-tsl/internal/observability"
)

// ObservabilityOption configures tracing and metrics for the library.
type ObservabilityOption = observability.Option

// WithTracerProvider sets the OpenTelemetry tracer provider. Parse and
// evaluation entry points emit spans once a provider is installed.
func WithTracerProvider(tp trace.TracerProvider) ObservabilityOption {
	return observability.WithTracerProvider(tp)
}

// WithMeterProvider sets the OpenTelemetry meter provider. Parse and
// evaluation counts and error counts are recorded once a provider is
// installed.
func WithMeterProvider(mp metric.MeterProvider) ObservabilityOption {
	return observability.WithMeterProvider(mp)
}

// ConfigureObservability installs OpenTelemetry providers process-wide.
// Observability is opt-in: without this call every instrument is a no-op.
func ConfigureObservability(opts ...ObservabilityOption) {
	observability.Configure(opts...)
}
