package tsl

import "strings"

// Canonical text rendering of parsed expressions. The output is itself valid
// TSL and fully parenthesized where the original grouping is not implied by
// precedence, so String output re-parses to an equivalent tree.

var binaryOpText = map[BinaryOp]string{
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpMod:     "%",
	OpEq:      "=",
	OpNe:      "!=",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpRegexEq: "=~",
	OpRegexNe: "!~",
	OpAnd:     "and",
	OpOr:      "or",
}

var aggregateText = map[AggregateKind]string{
	AggregateLen: "len",
	AggregateAny: "any",
	AggregateAll: "all",
	AggregateSum: "sum",
}

func (e *LiteralExpr) String() string {
	return e.Value.String()
}

func (e *IdentifierExpr) String() string {
	return e.Name
}

func (e *UnaryExpr) String() string {
	if e.Op == OpNot {
		return "not (" + e.Operand.String() + ")"
	}
	return "-(" + e.Operand.String() + ")"
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + binaryOpText[e.Op] + " " + e.Right.String() + ")"
}

func (e *LikeExpr) String() string {
	op := "like"
	if e.CaseInsensitive {
		op = "ilike"
	}
	return "(" + e.Subject.String() + " " + op + " " + e.Pattern.String() + ")"
}

func (e *BetweenExpr) String() string {
	return "(" + e.Subject.String() + " between " + e.Low.String() + " and " + e.High.String() + ")"
}

func (e *InExpr) String() string {
	parts := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		parts[i] = c.String()
	}
	return "(" + e.Subject.String() + " in (" + strings.Join(parts, ", ") + "))"
}

func (e *IsNullExpr) String() string {
	if e.Negated {
		return "(" + e.Subject.String() + " is not null)"
	}
	return "(" + e.Subject.String() + " is null)"
}

func (e *AggregateExpr) String() string {
	return aggregateText[e.Kind] + "(" + e.Arg.String() + ")"
}

func (e *ListExpr) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
