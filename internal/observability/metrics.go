package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the TSL-specific metric instruments.
type Metrics struct {
	parseCount     metric.Int64Counter
	parseErrors    metric.Int64Counter
	evaluateCount  metric.Int64Counter
	evaluateErrors metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	// Note: errors from meter instrument creation are unlikely in practice
	// and would only occur with invalid parameters. We use explicit checks
	// to satisfy the linter while continuing with partial metrics on error.
	var err error

	m.parseCount, err = meter.Int64Counter(
		"tsl.parse.count",
		metric.WithDescription("Total number of parsed filter expressions"),
		metric.WithUnit("{expression}"),
	)
	if err != nil {
		m.parseCount, _ = meter.Int64Counter("tsl.parse.count")
	}

	m.parseErrors, err = meter.Int64Counter(
		"tsl.parse.errors",
		metric.WithDescription("Total number of lexical and syntax errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.parseErrors, _ = meter.Int64Counter("tsl.parse.errors")
	}

	m.evaluateCount, err = meter.Int64Counter(
		"tsl.evaluate.count",
		metric.WithDescription("Total number of expression evaluations"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		m.evaluateCount, _ = meter.Int64Counter("tsl.evaluate.count")
	}

	m.evaluateErrors, err = meter.Int64Counter(
		"tsl.evaluate.errors",
		metric.WithDescription("Total number of evaluation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.evaluateErrors, _ = meter.Int64Counter("tsl.evaluate.errors")
	}

	return m
}

// RecordParse counts a successful parse.
func (m *Metrics) RecordParse(ctx context.Context) {
	m.parseCount.Add(ctx, 1)
}

// RecordParseError counts a failed parse.
func (m *Metrics) RecordParseError(ctx context.Context) {
	m.parseErrors.Add(ctx, 1)
}

// RecordEvaluate counts a successful evaluation.
func (m *Metrics) RecordEvaluate(ctx context.Context) {
	m.evaluateCount.Add(ctx, 1)
}

// RecordEvaluateError counts a failed evaluation.
func (m *Metrics) RecordEvaluateError(ctx context.Context) {
	m.evaluateErrors.Add(ctx, 1)
}
