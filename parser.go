package tsl

// Parser builds an AST from a token stream. All state is call-local: every
// Parse call constructs its own Parser, so concurrent parses never share
// mutable state.
type Parser struct {
	tokens   []*Token
	current  int
	depth    int
	maxDepth int
}

// defaultMaxDepth bounds structural recursion so pathological nested inputs
// cannot exhaust the stack. Hosts can tighten or loosen it with WithMaxDepth.
const defaultMaxDepth = 1000

// NewParser creates a parser over the given tokens.
func NewParser(tokens []*Token) *Parser {
	return &Parser{
		tokens:   tokens,
		maxDepth: defaultMaxDepth,
	}
}

// currentToken returns the current token.
func (p *Parser) currentToken() *Token {
	if p.current >= len(p.tokens) {
		return &Token{Type: TokenEOF}
	}
	return p.tokens[p.current]
}

// advance moves to the next token and returns the one consumed.
func (p *Parser) advance() *Token {
	token := p.currentToken()
	if p.current < len(p.tokens) {
		p.current++
	}
	return token
}

// atKeyword reports whether the current token is the given keyword.
func (p *Parser) atKeyword(kw string) bool {
	tok := p.currentToken()
	return tok.Type == TokenKeyword && tok.Value == kw
}

// atOperator reports whether the current token is the given operator.
func (p *Parser) atOperator(op string) bool {
	tok := p.currentToken()
	return tok.Type == TokenOperator && tok.Value == op
}

// unexpected builds a SyntaxError for the current token.
func (p *Parser) unexpected(expected string) error {
	tok := p.currentToken()
	if tok.Type == TokenEOF {
		return &SyntaxError{
			Kind:     SyntaxUnexpectedEOF,
			Pos:      tok.Pos,
			Expected: expected,
			Found:    tok.Type.String(),
		}
	}
	found := tok.Type.String()
	if tok.Value != "" {
		found += " '" + tok.Value + "'"
	}
	return &SyntaxError{
		Kind:     SyntaxUnexpectedToken,
		Pos:      tok.Pos,
		Expected: expected,
		Found:    found,
	}
}

// mismatched builds a SyntaxError for a missing closing delimiter.
func (p *Parser) mismatched(expected string) error {
	tok := p.currentToken()
	found := tok.Type.String()
	if tok.Value != "" && tok.Type != TokenEOF {
		found += " '" + tok.Value + "'"
	}
	return &SyntaxError{
		Kind:     SyntaxMismatchedDelimiter,
		Pos:      tok.Pos,
		Expected: expected,
		Found:    found,
	}
}

// enter tracks recursion depth across the grammar's recursive productions.
func (p *Parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return &SyntaxError{
			Kind:     SyntaxUnexpectedToken,
			Pos:      p.currentToken().Pos,
			Expected: "an expression within the nesting depth limit",
			Found:    "expression nested too deeply",
		}
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

// Parse parses the tokens into an AST. It fails fast on the first
// structural error and requires all input to be consumed.
func (p *Parser) Parse() (Node, error) {
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.currentToken().Type != TokenEOF {
		return nil, p.unexpected("end of input")
	}

	return node, nil
}

// parseOr handles OR expressions (lowest precedence, left-associative).
func (p *Parser) parseOr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.atKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpOr, Left: left, Right: right}
	}

	return left, nil
}

// parseAnd handles AND expressions (left-associative).
func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.atKeyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}

	return left, nil
}

// parseNot handles unary NOT.
func (p *Parser) parseNot() (Node, error) {
	if p.atKeyword("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: OpNot, Operand: operand}, nil
	}

	return p.parseComparison()
}

// comparisonOps maps comparison operator lexemes to their binary op.
var comparisonOps = map[string]BinaryOp{
	"=":  OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
	"=~": OpRegexEq,
	"!~": OpRegexNe,
}

// parseComparison handles the comparison tier. The tier is non-associative:
// at most one comparison per grouping, so `a < b < c` is a syntax error.
func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	tok := p.currentToken()

	if tok.Type == TokenOperator {
		op, ok := comparisonOps[tok.Value]
		if !ok {
			return nil, p.unexpected("a comparison operator")
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		node := &BinaryExpr{Op: op, Left: left, Right: right}
		if p.currentToken().Type == TokenOperator {
			return nil, p.unexpected("no further comparison (comparison operators do not chain; use parentheses)")
		}
		return node, nil
	}

	if tok.Type == TokenKeyword {
		switch tok.Value {
		case "like":
			p.advance()
			return p.parseLike(left, false)
		case "ilike":
			p.advance()
			return p.parseLike(left, true)
		case "between":
			p.advance()
			return p.parseBetween(left)
		case "in":
			p.advance()
			return p.parseIn(left)
		case "is":
			p.advance()
			return p.parseIsNull(left)
		}
	}

	return left, nil
}

// parseLike handles `subject LIKE pattern` / `subject ILIKE pattern`.
func (p *Parser) parseLike(subject Node, caseInsensitive bool) (Node, error) {
	pattern, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &LikeExpr{
		Subject:         subject,
		Pattern:         pattern,
		CaseInsensitive: caseInsensitive,
	}, nil
}

// parseBetween handles `subject BETWEEN low AND high`. The AND after the
// low bound belongs to the BETWEEN construct, not to the logical AND tier.
func (p *Parser) parseBetween(subject Node) (Node, error) {
	low, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if !p.atKeyword("and") {
		return nil, p.unexpected("'and' between the bounds of BETWEEN")
	}
	p.advance()

	high, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	return &BetweenExpr{Subject: subject, Low: low, High: high}, nil
}

// parseIn handles `subject IN (candidate, ...)`.
func (p *Parser) parseIn(subject Node) (Node, error) {
	if p.currentToken().Type != TokenLParen {
		return nil, p.unexpected("'(' after IN")
	}
	p.advance()

	candidates, err := p.parseExprList(TokenRParen)
	if err != nil {
		return nil, err
	}

	if p.currentToken().Type != TokenRParen {
		return nil, p.mismatched("')' closing the IN list")
	}
	p.advance()

	return &InExpr{Subject: subject, Candidates: candidates}, nil
}

// parseIsNull handles `subject IS NULL` and `subject IS NOT NULL`.
func (p *Parser) parseIsNull(subject Node) (Node, error) {
	negated := false
	if p.atKeyword("not") {
		negated = true
		p.advance()
	}

	if p.currentToken().Type != TokenNull {
		return nil, p.unexpected("NULL after IS")
	}
	p.advance()

	return &IsNullExpr{Subject: subject, Negated: negated}, nil
}

// parseAdditive handles `+` and `-` (left-associative).
func (p *Parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Type == TokenArithmetic &&
		(p.currentToken().Value == "+" || p.currentToken().Value == "-") {
		op := OpAdd
		if p.advance().Value == "-" {
			op = OpSub
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

// parseMultiplicative handles `*`, `/`, and `%` (left-associative).
func (p *Parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Type == TokenArithmetic &&
		(p.currentToken().Value == "*" || p.currentToken().Value == "/" || p.currentToken().Value == "%") {
		var op BinaryOp
		switch p.advance().Value {
		case "*":
			op = OpMul
		case "/":
			op = OpDiv
		case "%":
			op = OpMod
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

// parseUnary handles unary minus, the tightest-binding operator.
func (p *Parser) parseUnary() (Node, error) {
	if p.currentToken().Type == TokenArithmetic && p.currentToken().Value == "-" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: OpNegate, Operand: operand}, nil
	}

	return p.parsePrimary()
}

// parsePrimary handles literals, identifiers, parenthesized expressions,
// bracketed lists, and aggregate-function applications.
func (p *Parser) parsePrimary() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.currentToken()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return &LiteralExpr{Value: NewNumber(tok.Number), Lexeme: tok.Value}, nil

	case TokenString:
		p.advance()
		return &LiteralExpr{Value: NewString(tok.Value)}, nil

	case TokenDate:
		p.advance()
		return &LiteralExpr{Value: NewDateTime(tok.Date), Lexeme: tok.Value}, nil

	case TokenBoolean:
		p.advance()
		return &LiteralExpr{Value: NewBool(tok.Value == "true")}, nil

	case TokenNull:
		p.advance()
		return &LiteralExpr{Value: Null}, nil

	case TokenIdentifier:
		p.advance()
		return &IdentifierExpr{Name: tok.Value}, nil

	case TokenLParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.currentToken().Type != TokenRParen {
			return nil, p.mismatched("')'")
		}
		p.advance()
		return expr, nil

	case TokenLBracket:
		p.advance()
		elements, err := p.parseExprList(TokenRBracket)
		if err != nil {
			return nil, err
		}
		if p.currentToken().Type != TokenRBracket {
			return nil, p.mismatched("']' closing the list")
		}
		p.advance()
		return &ListExpr{Elements: elements}, nil

	case TokenKeyword:
		if kind, ok := aggregateKinds[tok.Value]; ok {
			p.advance()
			return p.parseAggregate(kind, tok.Value)
		}
	}

	return nil, p.unexpected("an expression")
}

// aggregateKinds maps aggregate keywords to their kind.
var aggregateKinds = map[string]AggregateKind{
	"len": AggregateLen,
	"any": AggregateAny,
	"all": AggregateAll,
	"sum": AggregateSum,
}

// parseAggregate handles `LEN(expr)`, `ANY(expr)`, `ALL(expr)`, `SUM(expr)`.
// Aggregates take exactly one argument.
func (p *Parser) parseAggregate(kind AggregateKind, name string) (Node, error) {
	if p.currentToken().Type != TokenLParen {
		return nil, p.unexpected("'(' after " + name)
	}
	p.advance()

	arg, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.currentToken().Type == TokenComma {
		return nil, p.unexpected("')' (" + name + " takes exactly one argument)")
	}
	if p.currentToken().Type != TokenRParen {
		return nil, p.mismatched("')' closing the " + name + " argument")
	}
	p.advance()

	return &AggregateExpr{Kind: kind, Arg: arg}, nil
}

// parseExprList parses a comma-separated expression list terminated by the
// given delimiter. Bracketed list literals and IN candidate lists share this
// logic. The terminator itself is not consumed; an empty list is allowed.
func (p *Parser) parseExprList(terminator TokenType) ([]Node, error) {
	var elements []Node

	if p.currentToken().Type == terminator {
		return elements, nil
	}

	for {
		element, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)

		if p.currentToken().Type == TokenComma {
			p.advance()
			continue
		}
		break
	}

	return elements, nil
}
