package tsl

import (
	"errors"
	"fmt"
)

// Sentinel errors for stage-level classification. Each structured error type
// below matches one of these through errors.Is, so hosts can branch on the
// failing stage without inspecting concrete types.
var (
	// ErrLex indicates the source could not be tokenized.
	ErrLex = errors.New("tsl: lexical error")

	// ErrSyntax indicates the token stream does not form a valid expression.
	ErrSyntax = errors.New("tsl: syntax error")

	// ErrEval indicates a well-formed expression failed during evaluation.
	ErrEval = errors.New("tsl: evaluation error")
)

// LexErrorKind classifies lexical failures.
type LexErrorKind int

const (
	LexInvalidCharacter LexErrorKind = iota
	LexUnterminatedString
	LexMalformedNumber
	LexMalformedDate
)

var lexErrorKindNames = map[LexErrorKind]string{
	LexInvalidCharacter:   "invalid character",
	LexUnterminatedString: "unterminated string",
	LexMalformedNumber:    "malformed number",
	LexMalformedDate:      "malformed date literal",
}

func (k LexErrorKind) String() string {
	if name, ok := lexErrorKindNames[k]; ok {
		return name
	}
	return "lexical error"
}

// LexError reports a failure to tokenize the source string. Pos points at
// the offending character; for unterminated strings it points at the opening
// quote.
type LexError struct {
	Kind    LexErrorKind
	Pos     Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("tsl: %s at position %d (line %d, column %d): %s",
		e.Kind, e.Pos.Offset, e.Pos.Line, e.Pos.Column, e.Message)
}

func (e *LexError) Is(target error) bool { return target == ErrLex }

// SyntaxErrorKind classifies parse failures.
type SyntaxErrorKind int

const (
	SyntaxUnexpectedToken SyntaxErrorKind = iota
	SyntaxUnexpectedEOF
	SyntaxMismatchedDelimiter
)

// SyntaxError reports a structural error in the token stream. Expected
// describes what the parser was looking for; Found describes the token it
// saw instead.
type SyntaxError struct {
	Kind     SyntaxErrorKind
	Pos      Position
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	if e.Kind == SyntaxUnexpectedEOF {
		return fmt.Sprintf("tsl: unexpected end of input at position %d, expected %s",
			e.Pos.Offset, e.Expected)
	}
	return fmt.Sprintf("tsl: unexpected %s at position %d (line %d, column %d), expected %s",
		e.Found, e.Pos.Offset, e.Pos.Line, e.Pos.Column, e.Expected)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// EvalErrorKind classifies evaluation failures.
type EvalErrorKind int

const (
	EvalUndefinedField EvalErrorKind = iota
	EvalTypeMismatch
	EvalDivisionByZero
	EvalRegexCompile
	EvalInvalidAggregateOperand
)

var evalErrorKindNames = map[EvalErrorKind]string{
	EvalUndefinedField:          "undefined field",
	EvalTypeMismatch:            "type mismatch",
	EvalDivisionByZero:          "division by zero",
	EvalRegexCompile:            "invalid regular expression",
	EvalInvalidAggregateOperand: "invalid aggregate operand",
}

func (k EvalErrorKind) String() string {
	if name, ok := evalErrorKindNames[k]; ok {
		return name
	}
	return "evaluation error"
}

// EvalError reports a runtime failure while evaluating an expression
// against a context. Op names the operator or function that failed; Field
// carries the field name for undefined-field errors.
type EvalError struct {
	Kind    EvalErrorKind
	Op      string
	Field   string
	Message string
}

func (e *EvalError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("tsl: %s: %s: %s", e.Kind, e.Field, e.Message)
	case e.Op != "":
		return fmt.Sprintf("tsl: %s in %s: %s", e.Kind, e.Op, e.Message)
	default:
		return fmt.Sprintf("tsl: %s: %s", e.Kind, e.Message)
	}
}

func (e *EvalError) Is(target error) bool { return target == ErrEval }

// typeMismatch builds an EvalError for an operand of the wrong kind.
func typeMismatch(op string, expected string, got Value) *EvalError {
	return &EvalError{
		Kind:    EvalTypeMismatch,
		Op:      op,
		Message: fmt.Sprintf("expected %s, got %s", expected, got.Kind()),
	}
}
