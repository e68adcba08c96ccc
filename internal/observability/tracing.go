package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with TSL-specific span creation
// methods.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(TracerName),
	}
}

// StartParse starts a span covering one parse call.
func (t *Tracer) StartParse(ctx context.Context, source string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tsl.parse", trace.WithAttributes(
		SourceAttr(source),
		attribute.Int(AttrSourceLength, len(source)),
	))
}

// StartEvaluate starts a span covering one evaluation call.
func (t *Tracer) StartEvaluate(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tsl.evaluate")
}

// StartParse starts a parse span on the active configuration.
func StartParse(ctx context.Context, source string) (context.Context, trace.Span) {
	return active().tracer.StartParse(ctx, source)
}

// StartEvaluate starts an evaluation span on the active configuration.
func StartEvaluate(ctx context.Context) (context.Context, trace.Span) {
	return active().tracer.StartEvaluate(ctx)
}

// RecordParse records a successful parse.
func RecordParse(ctx context.Context) {
	active().metrics.RecordParse(ctx)
}

// RecordParseError marks the span failed and counts the error. Stage is
// the failing pipeline stage, "lex" or "syntax".
func RecordParseError(ctx context.Context, span trace.Span, err error, stage string) {
	span.RecordError(err)
	span.SetAttributes(attribute.String(AttrErrorStage, stage))
	span.SetStatus(codes.Error, err.Error())
	active().metrics.RecordParseError(ctx)
}

// RecordEvaluate records a successful evaluation.
func RecordEvaluate(ctx context.Context) {
	active().metrics.RecordEvaluate(ctx)
}

// RecordEvaluateError marks the span failed and counts the error.
func RecordEvaluateError(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String(AttrErrorStage, "eval"))
	span.SetStatus(codes.Error, err.Error())
	active().metrics.RecordEvaluateError(ctx)
}
