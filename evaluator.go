package tsl

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nlstn/go-tsl/internal/observability"
)

// Context is the read-only mapping from field name to Value an expression
// is evaluated against. The evaluator never mutates it and never retains it
// beyond the call.
type Context map[string]Value

// LookupFunc resolves a field name to a Value. ok=false means the field is
// absent from the record.
type LookupFunc func(name string) (Value, bool)

// EvalOption configures a single evaluation call.
type EvalOption func(*evaluator)

// WithStrictFields makes references to fields absent from the context fail
// with an undefined-field error. By default an unknown field resolves to
// Null so predicates compose gracefully with IS NULL checks.
func WithStrictFields() EvalOption {
	return func(e *evaluator) {
		e.strict = true
	}
}

// evaluator holds call-local evaluation state.
type evaluator struct {
	lookup LookupFunc
	strict bool
}

// Evaluate computes the value of a parsed expression against a context.
// Evaluation is a pure function of (node, ctx): the tree is never mutated,
// so one tree may be evaluated concurrently against distinct contexts.
func Evaluate(node Node, ctx Context, opts ...EvalOption) (Value, error) {
	return EvaluateLookup(node, func(name string) (Value, bool) {
		v, ok := ctx[name]
		return v, ok
	}, opts...)
}

// EvaluateLookup is Evaluate with a callback in place of a materialized map,
// for hosts whose records do not live in a map[string]Value. Every public
// evaluation funnels through here, so this is where the observability span
// and counters are emitted.
func EvaluateLookup(node Node, lookup LookupFunc, opts ...EvalOption) (Value, error) {
	ctx, span := observability.StartEvaluate(context.Background())
	defer span.End()

	e := &evaluator{lookup: lookup}
	for _, opt := range opts {
		opt(e)
	}

	result, err := e.eval(node)
	if err != nil {
		observability.RecordEvaluateError(ctx, span, err)
		return Null, err
	}

	observability.RecordEvaluate(ctx)
	return result, nil
}

func (e *evaluator) eval(node Node) (Value, error) {
	switch n := node.(type) {
	case *LiteralExpr:
		return n.Value, nil

	case *IdentifierExpr:
		return e.resolve(n.Name)

	case *UnaryExpr:
		return e.evalUnary(n)

	case *BinaryExpr:
		return e.evalBinary(n)

	case *LikeExpr:
		return e.evalLike(n)

	case *BetweenExpr:
		return e.evalBetween(n)

	case *InExpr:
		return e.evalIn(n)

	case *IsNullExpr:
		subject, err := e.eval(n.Subject)
		if err != nil {
			return Null, err
		}
		return NewBool(subject.IsNull() != n.Negated), nil

	case *AggregateExpr:
		return e.evalAggregate(n)

	case *ListExpr:
		elements := make([]Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := e.eval(el)
			if err != nil {
				return Null, err
			}
			elements[i] = v
		}
		return Value{kind: KindList, list: elements}, nil
	}

	return Null, &EvalError{
		Kind:    EvalTypeMismatch,
		Message: fmt.Sprintf("unsupported node type %T", node),
	}
}

// resolve looks a field up in the evaluation context. String values that
// parse as RFC3339 timestamps are promoted to datetimes so date fields
// stored as strings compare chronologically.
func (e *evaluator) resolve(name string) (Value, error) {
	value, ok := e.lookup(name)
	if !ok {
		if e.strict {
			return Null, &EvalError{
				Kind:    EvalUndefinedField,
				Field:   name,
				Message: "field not present in evaluation context",
			}
		}
		return Null, nil
	}

	if value.Kind() == KindString {
		if t, err := time.Parse(time.RFC3339, value.Text()); err == nil {
			return NewDateTime(t), nil
		}
	}

	return value, nil
}

func (e *evaluator) evalUnary(n *UnaryExpr) (Value, error) {
	operand, err := e.eval(n.Operand)
	if err != nil {
		return Null, err
	}

	switch n.Op {
	case OpNot:
		if operand.Kind() != KindBool {
			return Null, typeMismatch("not", "boolean", operand)
		}
		return NewBool(!operand.Bool()), nil
	case OpNegate:
		if operand.Kind() != KindNumber {
			return Null, typeMismatch("-", "number", operand)
		}
		return NewNumber(-operand.Number()), nil
	}

	return Null, &EvalError{
		Kind:    EvalTypeMismatch,
		Message: fmt.Sprintf("unsupported unary operator %d", n.Op),
	}
}

func (e *evaluator) evalBinary(n *BinaryExpr) (Value, error) {
	// AND and OR short-circuit: the right operand is not evaluated when the
	// left already decides the result.
	if n.Op == OpAnd || n.Op == OpOr {
		return e.evalLogical(n)
	}

	left, err := e.eval(n.Left)
	if err != nil {
		return Null, err
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return Null, err
	}

	switch n.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return evalArithmetic(n.Op, left, right)
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return evalComparison(n.Op, left, right)
	case OpRegexEq:
		return evalRegexp(left, right)
	case OpRegexNe:
		if left.IsNull() || right.IsNull() {
			return False, nil
		}
		matched, err := evalRegexp(left, right)
		if err != nil {
			return Null, err
		}
		return NewBool(!matched.Bool()), nil
	}

	return Null, &EvalError{
		Kind:    EvalTypeMismatch,
		Message: fmt.Sprintf("unsupported binary operator %d", n.Op),
	}
}

func (e *evaluator) evalLogical(n *BinaryExpr) (Value, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return Null, err
	}
	if left.Kind() != KindBool {
		return Null, typeMismatch(logicalOpName(n.Op), "boolean", left)
	}

	if n.Op == OpAnd && !left.Bool() {
		return False, nil
	}
	if n.Op == OpOr && left.Bool() {
		return True, nil
	}

	right, err := e.eval(n.Right)
	if err != nil {
		return Null, err
	}
	if right.Kind() != KindBool {
		return Null, typeMismatch(logicalOpName(n.Op), "boolean", right)
	}
	return right, nil
}

func logicalOpName(op BinaryOp) string {
	if op == OpAnd {
		return "and"
	}
	return "or"
}

// evalArithmetic implements `+ - * / %` on numbers plus string
// concatenation for `+`. All numeric arithmetic is IEEE-754 double.
func evalArithmetic(op BinaryOp, left, right Value) (Value, error) {
	if op == OpAdd && left.Kind() == KindString && right.Kind() == KindString {
		return NewString(left.Text() + right.Text()), nil
	}

	name := arithmeticOpNames[op]
	if left.Kind() != KindNumber {
		return Null, typeMismatch(name, "number", left)
	}
	if right.Kind() != KindNumber {
		return Null, typeMismatch(name, "number", right)
	}

	l, r := left.Number(), right.Number()
	switch op {
	case OpAdd:
		return NewNumber(l + r), nil
	case OpSub:
		return NewNumber(l - r), nil
	case OpMul:
		return NewNumber(l * r), nil
	case OpDiv:
		if r == 0 {
			return Null, &EvalError{Kind: EvalDivisionByZero, Op: "/", Message: "division by zero"}
		}
		return NewNumber(l / r), nil
	case OpMod:
		if r == 0 {
			return Null, &EvalError{Kind: EvalDivisionByZero, Op: "%", Message: "modulo by zero"}
		}
		return NewNumber(math.Mod(l, r)), nil
	}

	return Null, &EvalError{Kind: EvalTypeMismatch, Op: name, Message: "unsupported arithmetic operator"}
}

var arithmeticOpNames = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
}

var comparisonOpNames = map[BinaryOp]string{
	OpEq: "=", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
}

// evalComparison implements `= != < <= > >=`. Operands must be of
// comparable kinds; any comparison involving null yields false (only
// IS NULL observes nullness).
func evalComparison(op BinaryOp, left, right Value) (Value, error) {
	if left.IsNull() || right.IsNull() {
		return False, nil
	}

	name := comparisonOpNames[op]

	switch op {
	case OpEq, OpNe:
		equal, comparable := left.Equal(right)
		if !comparable {
			return Null, typeMismatch(name, left.Kind().String(), right)
		}
		return NewBool(equal == (op == OpEq)), nil
	}

	cmp, comparable := left.Compare(right)
	if !comparable {
		return Null, &EvalError{
			Kind:    EvalTypeMismatch,
			Op:      name,
			Message: fmt.Sprintf("cannot order %s against %s", left.Kind(), right.Kind()),
		}
	}

	switch op {
	case OpLt:
		return NewBool(cmp < 0), nil
	case OpLe:
		return NewBool(cmp <= 0), nil
	case OpGt:
		return NewBool(cmp > 0), nil
	case OpGe:
		return NewBool(cmp >= 0), nil
	}

	return Null, &EvalError{Kind: EvalTypeMismatch, Op: name, Message: "unsupported comparison operator"}
}

func (e *evaluator) evalLike(n *LikeExpr) (Value, error) {
	subject, err := e.eval(n.Subject)
	if err != nil {
		return Null, err
	}
	pattern, err := e.eval(n.Pattern)
	if err != nil {
		return Null, err
	}
	if n.CaseInsensitive {
		return evalILike(subject, pattern)
	}
	return evalSQLLike(subject, pattern)
}

func (e *evaluator) evalBetween(n *BetweenExpr) (Value, error) {
	subject, err := e.eval(n.Subject)
	if err != nil {
		return Null, err
	}
	low, err := e.eval(n.Low)
	if err != nil {
		return Null, err
	}
	high, err := e.eval(n.High)
	if err != nil {
		return Null, err
	}
	return evalRange(subject, low, high)
}

func (e *evaluator) evalIn(n *InExpr) (Value, error) {
	subject, err := e.eval(n.Subject)
	if err != nil {
		return Null, err
	}

	candidates := make([]Value, len(n.Candidates))
	for i, c := range n.Candidates {
		v, err := e.eval(c)
		if err != nil {
			return Null, err
		}
		candidates[i] = v
	}

	return evalMembership(subject, candidates)
}

func (e *evaluator) evalAggregate(n *AggregateExpr) (Value, error) {
	arg, err := e.eval(n.Arg)
	if err != nil {
		return Null, err
	}

	switch n.Kind {
	case AggregateLen:
		return evalLen(arg)
	case AggregateSum:
		return evalSum(arg)
	case AggregateAny:
		return evalAnyAll(arg, "any")
	case AggregateAll:
		return evalAnyAll(arg, "all")
	}

	return Null, &EvalError{
		Kind:    EvalInvalidAggregateOperand,
		Message: fmt.Sprintf("unsupported aggregate kind %d", n.Kind),
	}
}
