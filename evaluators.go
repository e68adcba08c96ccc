package tsl

import (
	"regexp"
	"strings"
)

// evalSQLLike performs pattern matching with SQL LIKE semantics: '%'
// matches any run of characters, '_' matches exactly one. All other
// characters match literally, including regex metacharacters.
func evalSQLLike(subject, pattern Value) (Value, error) {
	if subject.IsNull() || pattern.IsNull() {
		return False, nil
	}
	if subject.Kind() != KindString {
		return Null, typeMismatch("like", "string", subject)
	}
	if pattern.Kind() != KindString {
		return Null, typeMismatch("like", "string pattern", pattern)
	}

	matched := likeRegexp(pattern.Text()).MatchString(subject.Text())
	return NewBool(matched), nil
}

// evalILike is evalSQLLike with case folding on both sides.
func evalILike(subject, pattern Value) (Value, error) {
	if subject.IsNull() || pattern.IsNull() {
		return False, nil
	}
	if subject.Kind() != KindString {
		return Null, typeMismatch("ilike", "string", subject)
	}
	if pattern.Kind() != KindString {
		return Null, typeMismatch("ilike", "string pattern", pattern)
	}

	return evalSQLLike(
		NewString(strings.ToLower(subject.Text())),
		NewString(strings.ToLower(pattern.Text())),
	)
}

// likeRegexp converts a SQL LIKE pattern into an anchored regular
// expression. Literal runs are quoted so '.' or '(' in a pattern match
// themselves rather than acting as regex syntax.
func likeRegexp(pattern string) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString("^")

	literal := strings.Builder{}
	flush := func() {
		if literal.Len() > 0 {
			sb.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}

	for _, r := range pattern {
		switch r {
		case '%':
			flush()
			sb.WriteString("(?s).*")
		case '_':
			flush()
			sb.WriteString("(?s).")
		default:
			literal.WriteRune(r)
		}
	}
	flush()
	sb.WriteString("$")

	// The translated pattern is always valid: every user-supplied character
	// passed through QuoteMeta.
	return regexp.MustCompile(sb.String())
}

// evalRegexp evaluates whether a string matches a regular expression. The
// pattern is compiled at evaluation time because it may itself come from a
// field reference; a compile failure is an evaluation error.
func evalRegexp(subject, pattern Value) (Value, error) {
	if subject.IsNull() || pattern.IsNull() {
		return False, nil
	}
	if subject.Kind() != KindString {
		return Null, typeMismatch("=~", "string", subject)
	}
	if pattern.Kind() != KindString {
		return Null, typeMismatch("=~", "string pattern", pattern)
	}

	re, err := regexp.Compile(pattern.Text())
	if err != nil {
		return Null, &EvalError{
			Kind:    EvalRegexCompile,
			Op:      "=~",
			Message: err.Error(),
		}
	}

	return NewBool(re.MatchString(subject.Text())), nil
}

// evalRange implements BETWEEN: true iff low <= subject <= high. All three
// values must be mutually comparable. Any null operand yields false, the
// same rule as binary comparisons.
func evalRange(subject, low, high Value) (Value, error) {
	if subject.IsNull() || low.IsNull() || high.IsNull() {
		return False, nil
	}

	cmpLow, ok := subject.Compare(low)
	if !ok {
		return Null, typeMismatch("between", subject.Kind().String(), low)
	}
	cmpHigh, ok := subject.Compare(high)
	if !ok {
		return Null, typeMismatch("between", subject.Kind().String(), high)
	}

	return NewBool(cmpLow >= 0 && cmpHigh <= 0), nil
}

// evalMembership implements IN: true iff subject equals any candidate under
// the `=` rule. An empty candidate list yields false. Candidates of a kind
// incomparable with the subject simply do not match.
func evalMembership(subject Value, candidates []Value) (Value, error) {
	if subject.IsNull() {
		return False, nil
	}

	for _, candidate := range candidates {
		equal, comparable := subject.Equal(candidate)
		if comparable && equal {
			return True, nil
		}
	}

	return False, nil
}

// evalLen returns the element count of a list or the rune count of a
// string, as a number.
func evalLen(arg Value) (Value, error) {
	switch arg.Kind() {
	case KindList, KindString:
		return NewNumber(float64(arg.Len())), nil
	}
	return Null, &EvalError{
		Kind:    EvalInvalidAggregateOperand,
		Op:      "len",
		Message: "len requires a list or string, got " + arg.Kind().String(),
	}
}

// evalSum returns the numeric sum of a list of numbers.
func evalSum(arg Value) (Value, error) {
	if arg.Kind() != KindList {
		return Null, &EvalError{
			Kind:    EvalInvalidAggregateOperand,
			Op:      "sum",
			Message: "sum requires a list, got " + arg.Kind().String(),
		}
	}

	total := 0.0
	for _, element := range arg.list {
		if element.Kind() != KindNumber {
			return Null, &EvalError{
				Kind:    EvalInvalidAggregateOperand,
				Op:      "sum",
				Message: "sum requires a list of numbers, found " + element.Kind().String(),
			}
		}
		total += element.Number()
	}

	return NewNumber(total), nil
}

// evalAnyAll implements ANY (logical OR across elements, empty list false)
// and ALL (logical AND across elements, empty list true) over a list of
// booleans.
func evalAnyAll(arg Value, op string) (Value, error) {
	if arg.Kind() != KindList {
		return Null, &EvalError{
			Kind:    EvalInvalidAggregateOperand,
			Op:      op,
			Message: op + " requires a list, got " + arg.Kind().String(),
		}
	}

	result := op == "all"
	for _, element := range arg.list {
		if element.Kind() != KindBool {
			return Null, &EvalError{
				Kind:    EvalInvalidAggregateOperand,
				Op:      op,
				Message: op + " requires a list of booleans, found " + element.Kind().String(),
			}
		}
		if op == "any" && element.Bool() {
			result = true
		}
		if op == "all" && !element.Bool() {
			result = false
		}
	}

	return NewBool(result), nil
}
