package tsl

import (
	"errors"
	"testing"
	"time"
)

// matchExpr parses and evaluates a boolean expression against a context.
func matchExpr(t *testing.T, source string, ctx Context, opts ...EvalOption) bool {
	t.Helper()
	node := parse(t, source)
	result, err := Evaluate(node, ctx, opts...)
	if err != nil {
		t.Fatalf("Evaluate(%q) error = %v", source, err)
	}
	if result.Kind() != KindBool {
		t.Fatalf("Evaluate(%q) = %s, want a boolean", source, result)
	}
	return result.Bool()
}

func TestEvaluateComparisons(t *testing.T) {
	ctx := Context{
		"age":    NewNumber(30),
		"name":   NewString("smith"),
		"active": True,
	}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Number equal", input: "age = 30", expected: true},
		{name: "Number not equal", input: "age != 30", expected: false},
		{name: "Less than", input: "age < 40", expected: true},
		{name: "Less or equal at bound", input: "age <= 30", expected: true},
		{name: "Greater than", input: "age > 30", expected: false},
		{name: "Greater or equal at bound", input: "age >= 30", expected: true},
		{name: "String equality", input: "name = 'smith'", expected: true},
		{name: "String equality is case-sensitive", input: "name = 'Smith'", expected: false},
		{name: "String ordering", input: "name > 'jones'", expected: true},
		{name: "Boolean field stands alone", input: "active", expected: true},
		{name: "Boolean equality", input: "active = true", expected: true},
		{name: "Arithmetic in comparison", input: "age * 2 = 60", expected: true},
		{name: "Literal comparison", input: "10 + 5 > 12", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateNullSemantics(t *testing.T) {
	// "missing" is absent from the context; "set" is present but null.
	ctx := Context{
		"set": Null,
		"n":   NewNumber(5),
	}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Missing field equals nothing", input: "missing = 5", expected: false},
		{name: "Missing field not-equals nothing", input: "missing != 5", expected: false},
		{name: "Missing field orders nowhere", input: "missing < 5", expected: false},
		{name: "Null literal equals nothing", input: "n = null", expected: false},
		{name: "Null against null is not equal", input: "set = null", expected: false},
		{name: "Is null sees missing field", input: "missing is null", expected: true},
		{name: "Is null sees explicit null", input: "set is null", expected: true},
		{name: "Is not null on present field", input: "n is not null", expected: true},
		{name: "Is not null on missing field", input: "missing is not null", expected: false},
		{name: "Between with null subject", input: "missing between 1 and 10", expected: false},
		{name: "In with null subject", input: "missing in (1, 2)", expected: false},
		{name: "Like with null subject", input: "missing like '%x%'", expected: false},
		{name: "Regex with null subject", input: "missing =~ 'x'", expected: false},
		{name: "Negated regex with null subject", input: "missing !~ 'x'", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateStrictFields(t *testing.T) {
	ctx := Context{"present": NewNumber(1)}

	if got := matchExpr(t, "present = 1", ctx, WithStrictFields()); !got {
		t.Error("present field failed under strict mode")
	}

	node := parse(t, "missing = 1")
	_, err := Evaluate(node, ctx, WithStrictFields())
	if err == nil {
		t.Fatal("expected undefined-field error, got nil")
	}

	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("error type = %T, want *EvalError", err)
	}
	if evalErr.Kind != EvalUndefinedField {
		t.Errorf("kind = %v, want EvalUndefinedField", evalErr.Kind)
	}
	if evalErr.Field != "missing" {
		t.Errorf("field = %q, want %q", evalErr.Field, "missing")
	}
}

func TestEvaluateLike(t *testing.T) {
	ctx := Context{
		"name": NewString("John Smith"),
		"path": NewString("a.b(c)"),
	}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Percent matches any run", input: "name like '%Smith'", expected: true},
		{name: "Percent matches empty run", input: "name like 'John Smith%'", expected: true},
		{name: "Underscore matches one character", input: "name like 'John Smit_'", expected: true},
		{name: "Underscore does not match two", input: "name like 'John Smi_'", expected: false},
		{name: "Interior wildcard", input: "name like 'J%h'", expected: true},
		{name: "No wildcard needs exact match", input: "name like 'Smith'", expected: false},
		{name: "Like is case-sensitive", input: "name like '%smith'", expected: false},
		{name: "Ilike folds case", input: "name ilike '%smith'", expected: true},
		{name: "Ilike folds pattern case", input: "name ilike 'JOHN%'", expected: true},
		{name: "Regex metacharacters match literally", input: "path like 'a.b(c)'", expected: true},
		{name: "Dot does not act as regex any", input: "path like 'aXb(c)'", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateRegex(t *testing.T) {
	ctx := Context{"name": NewString("server-01")}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Match", input: `name =~ 'server-\\d+'`, expected: true},
		{name: "Unanchored by default", input: "name =~ '01'", expected: true},
		{name: "Anchors honored", input: "name =~ '^01$'", expected: false},
		{name: "Negated match", input: `name !~ 'db-\\d+'`, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateRegexCompileError(t *testing.T) {
	node := parse(t, "name =~ '['")
	_, err := Evaluate(node, Context{"name": NewString("x")})
	if err == nil {
		t.Fatal("expected regex compile error, got nil")
	}

	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("error type = %T, want *EvalError", err)
	}
	if evalErr.Kind != EvalRegexCompile {
		t.Errorf("kind = %v, want EvalRegexCompile", evalErr.Kind)
	}
}

func TestEvaluateBetween(t *testing.T) {
	ctx := Context{
		"age":  NewNumber(25),
		"name": NewString("m"),
		"when": NewDateTime(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)),
	}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Inside range", input: "age between 18 and 65", expected: true},
		{name: "Low bound inclusive", input: "age between 25 and 65", expected: true},
		{name: "High bound inclusive", input: "age between 18 and 25", expected: true},
		{name: "Below range", input: "age between 30 and 65", expected: false},
		{name: "String range", input: "name between 'a' and 'z'", expected: true},
		{name: "Date range", input: "when between 2024-01-01 and 2024-12-31", expected: true},
		{name: "Date outside range", input: "when between 2025-01-01 and 2025-12-31", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateIn(t *testing.T) {
	ctx := Context{
		"status": NewString("open"),
		"n":      NewNumber(3),
	}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Member", input: "status in ('open', 'pending')", expected: true},
		{name: "Not a member", input: "status in ('closed', 'done')", expected: false},
		{name: "Empty list never matches", input: "status in ()", expected: false},
		{name: "Numeric membership", input: "n in (1, 2, 3)", expected: true},
		{name: "Incomparable candidates are skipped", input: "n in ('a', 3)", expected: true},
		{name: "Computed candidates", input: "n in (1 + 2)", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateLogical(t *testing.T) {
	ctx := Context{"a": True, "b": False}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "And both true", input: "a and a", expected: true},
		{name: "And one false", input: "a and b", expected: false},
		{name: "Or one true", input: "a or b", expected: true},
		{name: "Or both false", input: "b or b", expected: false},
		{name: "Not", input: "not b", expected: true},
		{name: "Double negation", input: "not not a", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateShortCircuit(t *testing.T) {
	// The right operand of a decided AND/OR must not be evaluated: the
	// division by zero below would otherwise fail.
	ctx := Context{"n": NewNumber(5)}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "And short-circuits on false", input: "n > 10 and 1 / 0 > 0", expected: false},
		{name: "Or short-circuits on true", input: "n > 1 or 1 / 0 > 0", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}

	// Without a deciding left operand the error surfaces.
	node := parse(t, "n > 1 and 1 / 0 > 0")
	if _, err := Evaluate(node, ctx); err == nil {
		t.Error("expected division error on the evaluated branch, got nil")
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	ctx := Context{
		"x":     NewNumber(10),
		"y":     NewNumber(3),
		"first": NewString("John"),
		"last":  NewString("Smith"),
	}

	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{name: "Addition", input: "x + y", expected: NewNumber(13)},
		{name: "Subtraction", input: "x - y", expected: NewNumber(7)},
		{name: "Multiplication", input: "x * y", expected: NewNumber(30)},
		{name: "Division", input: "x / 4", expected: NewNumber(2.5)},
		{name: "Modulo", input: "x % y", expected: NewNumber(1)},
		{name: "Unary minus", input: "-x", expected: NewNumber(-10)},
		{name: "Double negation", input: "--x", expected: NewNumber(10)},
		{name: "String concatenation", input: "first + ' ' + last", expected: NewString("John Smith")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parse(t, tt.input)
			got, err := Evaluate(node, ctx)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.input, err)
			}
			equal, comparable := got.Equal(tt.expected)
			if !comparable || !equal {
				t.Errorf("%q = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Division", input: "1 / 0"},
		{name: "Modulo", input: "1 % 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parse(t, tt.input)
			_, err := Evaluate(node, Context{})
			if err == nil {
				t.Fatal("expected division error, got nil")
			}

			var evalErr *EvalError
			if !errors.As(err, &evalErr) {
				t.Fatalf("error type = %T, want *EvalError", err)
			}
			if evalErr.Kind != EvalDivisionByZero {
				t.Errorf("kind = %v, want EvalDivisionByZero", evalErr.Kind)
			}
			if !errors.Is(err, ErrEval) {
				t.Error("error does not match ErrEval sentinel")
			}
		})
	}
}

func TestEvaluateTypeMismatch(t *testing.T) {
	ctx := Context{
		"n": NewNumber(5),
		"s": NewString("x"),
		"b": True,
	}

	tests := []struct {
		name  string
		input string
	}{
		{name: "Number ordered against string", input: "n < s"},
		{name: "String minus number", input: "s - n"},
		{name: "Number in and", input: "n and b"},
		{name: "Not on a number", input: "not n"},
		{name: "Unary minus on string", input: "-s"},
		{name: "Like on a number", input: "n like '%x%'"},
		{name: "Regex on a number", input: "n =~ 'x'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parse(t, tt.input)
			_, err := Evaluate(node, ctx)
			if err == nil {
				t.Fatal("expected type mismatch, got nil")
			}

			var evalErr *EvalError
			if !errors.As(err, &evalErr) {
				t.Fatalf("error type = %T, want *EvalError", err)
			}
			if evalErr.Kind != EvalTypeMismatch {
				t.Errorf("kind = %v, want EvalTypeMismatch", evalErr.Kind)
			}
		})
	}
}

func TestEvaluateAggregates(t *testing.T) {
	ctx := Context{
		"tags":   NewList(NewString("a"), NewString("b"), NewString("c")),
		"empty":  NewList(),
		"scores": NewList(NewNumber(10), NewNumber(20), NewNumber(30)),
		"flags":  NewList(True, False),
		"allOn":  NewList(True, True),
		"name":   NewString("héllo"),
	}

	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{name: "Len of list", input: "len(tags)", expected: NewNumber(3)},
		{name: "Len of empty list", input: "len(empty)", expected: NewNumber(0)},
		{name: "Len of string counts runes", input: "len(name)", expected: NewNumber(5)},
		{name: "Sum", input: "sum(scores)", expected: NewNumber(60)},
		{name: "Sum of empty list", input: "sum(empty)", expected: NewNumber(0)},
		{name: "Any with one true", input: "any(flags)", expected: True},
		{name: "Any of empty list", input: "any(empty)", expected: False},
		{name: "All with one false", input: "all(flags)", expected: False},
		{name: "All true", input: "all(allOn)", expected: True},
		{name: "All of empty list", input: "all(empty)", expected: True},
		{name: "Aggregate over list literal", input: "sum([1, 2, 3])", expected: NewNumber(6)},
		{name: "Aggregate in comparison", input: "len(tags) > 2", expected: True},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parse(t, tt.input)
			got, err := Evaluate(node, ctx)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.input, err)
			}
			equal, comparable := got.Equal(tt.expected)
			if !comparable || !equal {
				t.Errorf("%q = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateAggregateErrors(t *testing.T) {
	ctx := Context{
		"n":     NewNumber(5),
		"mixed": NewList(NewNumber(1), NewString("a")),
		"flags": NewList(True),
	}

	tests := []struct {
		name  string
		input string
	}{
		{name: "Len of a number", input: "len(n)"},
		{name: "Sum of a number", input: "sum(n)"},
		{name: "Sum of mixed list", input: "sum(mixed)"},
		{name: "Any of numbers", input: "any(mixed)"},
		{name: "All of a string", input: "all('abc')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parse(t, tt.input)
			_, err := Evaluate(node, ctx)
			if err == nil {
				t.Fatal("expected aggregate operand error, got nil")
			}

			var evalErr *EvalError
			if !errors.As(err, &evalErr) {
				t.Fatalf("error type = %T, want *EvalError", err)
			}
			if evalErr.Kind != EvalInvalidAggregateOperand {
				t.Errorf("kind = %v, want EvalInvalidAggregateOperand", evalErr.Kind)
			}
		})
	}
}

func TestEvaluateDatePromotion(t *testing.T) {
	// String context values shaped like RFC3339 timestamps compare
	// chronologically against date literals.
	ctx := Context{"created": NewString("2024-06-15T10:00:00Z")}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "After a bare date", input: "created > 2024-01-01", expected: true},
		{name: "Before a later date", input: "created < 2024-12-31", expected: true},
		{name: "Range check", input: "created between 2024-06-01 and 2024-07-01", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpr(t, tt.input, ctx); got != tt.expected {
				t.Errorf("%q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvaluateLookup(t *testing.T) {
	lookup := func(name string) (Value, bool) {
		if name == "answer" {
			return NewNumber(42), true
		}
		return Null, false
	}

	node := parse(t, "answer = 42")
	result, err := EvaluateLookup(node, lookup)
	if err != nil {
		t.Fatalf("EvaluateLookup() error = %v", err)
	}
	if !result.Bool() {
		t.Error("lookup-backed evaluation returned false")
	}

	node = parse(t, "other is null")
	result, err = EvaluateLookup(node, lookup)
	if err != nil {
		t.Fatalf("EvaluateLookup() error = %v", err)
	}
	if !result.Bool() {
		t.Error("absent lookup field is not null")
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	ctx := Context{
		"a": NewNumber(1),
		"b": NewString("x"),
	}
	node := parse(t, "a = 1 and b like 'x%' or a > 5")

	first, err := Evaluate(node, ctx)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	for i := 0; i < 100; i++ {
		again, err := Evaluate(node, ctx)
		if err != nil {
			t.Fatalf("Evaluate() error on iteration %d: %v", i, err)
		}
		if again.Bool() != first.Bool() {
			t.Fatalf("result changed on iteration %d", i)
		}
	}
}

func TestEvaluateConcurrentSharedTree(t *testing.T) {
	node := parse(t, "n % 2 = 0")

	done := make(chan error, 8)
	for g := 0; g < 8; g++ {
		go func(g int) {
			for i := 0; i < 200; i++ {
				n := float64(g*200 + i)
				result, err := Evaluate(node, Context{"n": NewNumber(n)})
				if err != nil {
					done <- err
					return
				}
				if result.Bool() != (int(n)%2 == 0) {
					done <- errors.New("wrong parity result")
					return
				}
			}
			done <- nil
		}(g)
	}

	for g := 0; g < 8; g++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}
