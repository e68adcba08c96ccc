package tsl

// Node represents a node in the abstract syntax tree of a parsed filter
// expression. Nodes are built once by the parser and never mutated, so a
// tree may be shared freely between goroutines.
type Node interface {
	astNode()
	// String renders the node as canonical TSL text.
	String() string
}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	OpNegate UnaryOp = iota // arithmetic minus
	OpNot                   // boolean not
)

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpRegexEq
	OpRegexNe
	OpAnd
	OpOr
)

// AggregateKind identifies an aggregate function.
type AggregateKind int

const (
	AggregateLen AggregateKind = iota
	AggregateAny
	AggregateAll
	AggregateSum
)

// LiteralExpr represents a literal value (number, string, boolean, null,
// date). Lexeme keeps the raw source text of numeric literals so consumers
// that re-render values into another query language can preserve precision.
type LiteralExpr struct {
	Value  Value
	Lexeme string
}

func (e *LiteralExpr) astNode() {}

// IdentifierExpr represents a field reference, resolved against the
// evaluation context at evaluation time, never at parse time.
type IdentifierExpr struct {
	Name string
}

func (e *IdentifierExpr) astNode() {}

// UnaryExpr represents a unary expression (not X, -X).
type UnaryExpr struct {
	Op      UnaryOp
	Operand Node
}

func (e *UnaryExpr) astNode() {}

// BinaryExpr represents a binary expression: arithmetic, comparison, regex
// equality, or a logical connective.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (e *BinaryExpr) astNode() {}

// LikeExpr represents `subject LIKE pattern` or `subject ILIKE pattern`.
// The pattern uses SQL wildcards: '%' matches any run of characters, '_'
// matches exactly one.
type LikeExpr struct {
	Subject         Node
	Pattern         Node
	CaseInsensitive bool
}

func (e *LikeExpr) astNode() {}

// BetweenExpr represents `subject BETWEEN low AND high`, inclusive on both
// bounds.
type BetweenExpr struct {
	Subject Node
	Low     Node
	High    Node
}

func (e *BetweenExpr) astNode() {}

// InExpr represents `subject IN (candidate, ...)`.
type InExpr struct {
	Subject    Node
	Candidates []Node
}

func (e *InExpr) astNode() {}

// IsNullExpr represents `subject IS NULL` or `subject IS NOT NULL`.
type IsNullExpr struct {
	Subject Node
	Negated bool
}

func (e *IsNullExpr) astNode() {}

// AggregateExpr represents an aggregate function application:
// LEN(x), ANY(x), ALL(x), SUM(x).
type AggregateExpr struct {
	Kind AggregateKind
	Arg  Node
}

func (e *AggregateExpr) astNode() {}

// ListExpr represents a bracketed list literal `[e, e, ...]`. It evaluates
// to a list Value.
type ListExpr struct {
	Elements []Node
}

func (e *ListExpr) astNode() {}
