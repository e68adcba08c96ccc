package tsl

import (
	"context"

	"github.com/nlstn/go-tsl/internal/observability"
)

// ParseOption configures a single parse call.
type ParseOption func(*Parser)

// WithMaxDepth bounds the structural nesting depth the parser accepts.
// Zero disables the bound. The default limit is high enough for any
// hand-written filter while keeping pathological nested-parenthesis inputs
// from exhausting the stack.
func WithMaxDepth(n int) ParseOption {
	return func(p *Parser) {
		p.maxDepth = n
	}
}

// Parse compiles one TSL expression string into a reusable AST.
//
// The returned tree is immutable: it may be cached by the host and
// evaluated concurrently from multiple goroutines. Failures are a *LexError
// or a *SyntaxError carrying the exact source position; both also match the
// ErrLex / ErrSyntax sentinels through errors.Is.
func Parse(source string, opts ...ParseOption) (Node, error) {
	ctx, span := observability.StartParse(context.Background(), source)
	defer span.End()

	tokens, err := NewTokenizer(source).TokenizeAll()
	if err != nil {
		observability.RecordParseError(ctx, span, err, "lex")
		return nil, err
	}

	parser := NewParser(tokens)
	for _, opt := range opts {
		opt(parser)
	}

	node, err := parser.Parse()
	if err != nil {
		observability.RecordParseError(ctx, span, err, "syntax")
		return nil, err
	}

	observability.RecordParse(ctx)
	return node, nil
}

// MustParse is Parse for expressions known to be valid at compile time,
// typically package-level filter constants. It panics on error.
func MustParse(source string) Node {
	node, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return node
}

// Match parses source (through the parse cache), evaluates it against ctx,
// and interprets the result as "record matches". A non-boolean result is a
// type mismatch: a filter must decide, never silently pass or drop records.
func Match(source string, ctx Context, opts ...EvalOption) (bool, error) {
	node, err := ParseCached(source)
	if err != nil {
		return false, err
	}

	result, err := Evaluate(node, ctx, opts...)
	if err != nil {
		return false, err
	}

	if result.Kind() != KindBool {
		return false, typeMismatch("filter", "boolean result", result)
	}
	return result.Bool(), nil
}
