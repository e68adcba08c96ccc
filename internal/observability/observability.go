// Package observability provides OpenTelemetry-based instrumentation for the
// TSL library.
//
// All observability features are opt-in. When not configured, no-op
// implementations are used with zero performance overhead.
package observability

import (
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
)

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nlstn/go-tsl"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nlstn/go-tsl"
)

// TSL semantic attribute keys following OpenTelemetry conventions.
const (
	// AttrSource is the filter expression source text.
	AttrSource = "tsl.source"
	// AttrSourceLength is the length of the source text in bytes.
	AttrSourceLength = "tsl.source.length"
	// AttrErrorStage is the stage that failed: "lex", "syntax", or "eval".
	AttrErrorStage = "tsl.error.stage"
)

// SourceAttr creates a source attribute. Long sources are truncated so a
// pathological filter cannot bloat span storage.
func SourceAttr(source string) attribute.KeyValue {
	const maxLen = 256
	if len(source) > maxLen {
		source = source[:maxLen]
	}
	return attribute.String(AttrSource, source)
}

// current holds the active configuration. It defaults to all-noop and is
// replaced atomically by Configure, so instrumented call sites never lock.
var current atomic.Pointer[Config]

func init() {
	cfg := NewConfig()
	current.Store(cfg)
}

// Configure installs the given observability configuration process-wide.
func Configure(opts ...Option) {
	current.Store(NewConfig(opts...))
}

func active() *Config {
	return current.Load()
}
