package tsl

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Date literals are recognized lexically: a bare calendar date or a full
// RFC3339 timestamp. Both are anchored at the current position so that
// "2024-01-01" does not lex as the subtraction 2024 - 01 - 01.
var (
	rfc3339Pattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[Tt]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:[Zz]|[+-]\d{2}:\d{2})`)
	bareDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// Tokenizer converts a TSL source string into tokens. It holds only
// call-local state; each Parse call constructs its own Tokenizer.
type Tokenizer struct {
	input string
	pos   int
	line  int
	col   int
	ch    rune
}

// NewTokenizer creates a tokenizer for the given input.
func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{
		input: input,
		line:  1,
		col:   1,
	}
	if len(input) > 0 {
		t.ch, _ = utf8.DecodeRuneInString(input)
	}
	return t
}

// advance moves to the next character.
func (t *Tokenizer) advance() {
	if t.ch == '\n' {
		t.line++
		t.col = 1
	} else {
		t.col++
	}
	t.pos += utf8.RuneLen(t.ch)
	if t.pos >= len(t.input) {
		t.ch = 0 // EOF
	} else {
		t.ch, _ = utf8.DecodeRuneInString(t.input[t.pos:])
	}
}

// peek looks ahead one character without advancing.
func (t *Tokenizer) peek() rune {
	next := t.pos + utf8.RuneLen(t.ch)
	if next >= len(t.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t.input[next:])
	return r
}

func (t *Tokenizer) position() Position {
	return Position{Offset: t.pos, Line: t.line, Column: t.col}
}

// skipWhitespace skips whitespace characters.
func (t *Tokenizer) skipWhitespace() {
	for t.ch == ' ' || t.ch == '\t' || t.ch == '\n' || t.ch == '\r' {
		t.advance()
	}
}

// NextToken returns the next token or a *LexError.
func (t *Tokenizer) NextToken() (*Token, error) {
	t.skipWhitespace()

	pos := t.position()

	if t.ch == 0 {
		return &Token{Type: TokenEOF, Pos: pos}, nil
	}

	if t.ch == '\'' || t.ch == '"' {
		return t.readString(pos)
	}

	if unicode.IsDigit(t.ch) {
		return t.readNumberOrDate(pos)
	}

	if token, ok, err := t.readOperator(pos); ok {
		return token, err
	}

	if unicode.IsLetter(t.ch) || t.ch == '_' {
		return t.readIdentifierOrKeyword(pos), nil
	}

	return nil, &LexError{
		Kind:    LexInvalidCharacter,
		Pos:     pos,
		Message: "unexpected character " + strconv.QuoteRune(t.ch),
	}
}

// readString reads a quoted string literal, decoding escape sequences.
// The opening and closing quote characters must match; an unterminated
// string fails at the opening quote's position.
func (t *Tokenizer) readString(pos Position) (*Token, error) {
	quote := t.ch
	t.advance() // skip opening quote

	var result strings.Builder
	for t.ch != 0 && t.ch != quote {
		if t.ch == '\\' {
			t.advance()
			switch t.ch {
			case 0:
				return nil, &LexError{
					Kind:    LexUnterminatedString,
					Pos:     pos,
					Message: "unterminated string literal",
				}
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case 'r':
				result.WriteRune('\r')
			case '\\', '\'', '"':
				result.WriteRune(t.ch)
			default:
				// Unknown escapes keep the backslash verbatim.
				result.WriteRune('\\')
				result.WriteRune(t.ch)
			}
		} else {
			result.WriteRune(t.ch)
		}
		t.advance()
	}

	if t.ch != quote {
		return nil, &LexError{
			Kind:    LexUnterminatedString,
			Pos:     pos,
			Message: "unterminated string literal",
		}
	}
	t.advance() // skip closing quote

	return &Token{Type: TokenString, Value: result.String(), Pos: pos}, nil
}

// readNumberOrDate reads a numeric literal, a bare date, or an RFC3339
// timestamp. Dates are parsed at lex time so a malformed date fails fast.
func (t *Tokenizer) readNumberOrDate(pos Position) (*Token, error) {
	rest := t.input[t.pos:]

	if lexeme := rfc3339Pattern.FindString(rest); lexeme != "" {
		parsed, err := time.Parse(time.RFC3339, strings.ToUpper(lexeme))
		if err != nil {
			return nil, &LexError{
				Kind:    LexMalformedDate,
				Pos:     pos,
				Message: "malformed RFC3339 literal " + strconv.Quote(lexeme),
			}
		}
		t.skip(len(lexeme))
		return &Token{Type: TokenDate, Value: lexeme, Date: parsed, Pos: pos}, nil
	}

	if lexeme := bareDatePattern.FindString(rest); lexeme != "" {
		parsed, err := time.Parse("2006-01-02", lexeme)
		if err != nil {
			return nil, &LexError{
				Kind:    LexMalformedDate,
				Pos:     pos,
				Message: "malformed date literal " + strconv.Quote(lexeme),
			}
		}
		t.skip(len(lexeme))
		return &Token{Type: TokenDate, Value: lexeme, Date: parsed, Pos: pos}, nil
	}

	return t.readNumber(pos)
}

// readNumber reads a decimal integer or floating point literal.
func (t *Tokenizer) readNumber(pos Position) (*Token, error) {
	var lexeme strings.Builder

	for unicode.IsDigit(t.ch) {
		lexeme.WriteRune(t.ch)
		t.advance()
	}

	if t.ch == '.' {
		lexeme.WriteRune(t.ch)
		t.advance()
		if !unicode.IsDigit(t.ch) {
			return nil, &LexError{
				Kind:    LexMalformedNumber,
				Pos:     pos,
				Message: "malformed number literal " + strconv.Quote(lexeme.String()),
			}
		}
		for unicode.IsDigit(t.ch) {
			lexeme.WriteRune(t.ch)
			t.advance()
		}
	}

	if t.ch == 'e' || t.ch == 'E' {
		lexeme.WriteRune(t.ch)
		t.advance()
		if t.ch == '+' || t.ch == '-' {
			lexeme.WriteRune(t.ch)
			t.advance()
		}
		if !unicode.IsDigit(t.ch) {
			return nil, &LexError{
				Kind:    LexMalformedNumber,
				Pos:     pos,
				Message: "malformed exponent in number literal " + strconv.Quote(lexeme.String()),
			}
		}
		for unicode.IsDigit(t.ch) {
			lexeme.WriteRune(t.ch)
			t.advance()
		}
	}

	value, err := strconv.ParseFloat(lexeme.String(), 64)
	if err != nil {
		return nil, &LexError{
			Kind:    LexMalformedNumber,
			Pos:     pos,
			Message: "malformed number literal " + strconv.Quote(lexeme.String()),
		}
	}

	return &Token{Type: TokenNumber, Value: lexeme.String(), Number: value, Pos: pos}, nil
}

// readOperator tokenizes punctuation and operator characters. The boolean
// reports whether the current character starts an operator at all.
func (t *Tokenizer) readOperator(pos Position) (*Token, bool, error) {
	switch t.ch {
	case '(':
		t.advance()
		return &Token{Type: TokenLParen, Value: "(", Pos: pos}, true, nil
	case ')':
		t.advance()
		return &Token{Type: TokenRParen, Value: ")", Pos: pos}, true, nil
	case '[':
		t.advance()
		return &Token{Type: TokenLBracket, Value: "[", Pos: pos}, true, nil
	case ']':
		t.advance()
		return &Token{Type: TokenRBracket, Value: "]", Pos: pos}, true, nil
	case ',':
		t.advance()
		return &Token{Type: TokenComma, Value: ",", Pos: pos}, true, nil
	case '+', '-', '*', '/', '%':
		op := string(t.ch)
		t.advance()
		return &Token{Type: TokenArithmetic, Value: op, Pos: pos}, true, nil
	case '=':
		t.advance()
		if t.ch == '~' {
			t.advance()
			return &Token{Type: TokenOperator, Value: "=~", Pos: pos}, true, nil
		}
		return &Token{Type: TokenOperator, Value: "=", Pos: pos}, true, nil
	case '!':
		switch t.peek() {
		case '=':
			t.advance()
			t.advance()
			return &Token{Type: TokenOperator, Value: "!=", Pos: pos}, true, nil
		case '~':
			t.advance()
			t.advance()
			return &Token{Type: TokenOperator, Value: "!~", Pos: pos}, true, nil
		}
		return nil, true, &LexError{
			Kind:    LexInvalidCharacter,
			Pos:     pos,
			Message: "unexpected character '!', expected '!=' or '!~'",
		}
	case '<':
		t.advance()
		if t.ch == '=' {
			t.advance()
			return &Token{Type: TokenOperator, Value: "<=", Pos: pos}, true, nil
		}
		return &Token{Type: TokenOperator, Value: "<", Pos: pos}, true, nil
	case '>':
		t.advance()
		if t.ch == '=' {
			t.advance()
			return &Token{Type: TokenOperator, Value: ">=", Pos: pos}, true, nil
		}
		return &Token{Type: TokenOperator, Value: ">", Pos: pos}, true, nil
	case '~':
		if t.peek() == '=' {
			t.advance()
			t.advance()
			// Accepted alias for '=~', kept for compatibility with older
			// TSL expressions.
			return &Token{Type: TokenOperator, Value: "=~", Pos: pos}, true, nil
		}
		return nil, true, &LexError{
			Kind:    LexInvalidCharacter,
			Pos:     pos,
			Message: "unexpected character '~', expected '~='",
		}
	}
	return nil, false, nil
}

// readIdentifierOrKeyword reads an identifier, keyword, boolean, or null
// token. Identifiers start with a letter or underscore and may contain
// letters, digits, underscores, and dots for nested field paths.
func (t *Tokenizer) readIdentifierOrKeyword(pos Position) *Token {
	var lexeme strings.Builder

	for t.ch != 0 && (unicode.IsLetter(t.ch) || unicode.IsDigit(t.ch) || t.ch == '_' || t.ch == '.') {
		lexeme.WriteRune(t.ch)
		t.advance()
	}

	value := lexeme.String()
	if canonical, tt, ok := lookupKeyword(value); ok {
		return &Token{Type: tt, Value: canonical, Pos: pos}
	}

	return &Token{Type: TokenIdentifier, Value: value, Pos: pos}
}

// skip advances past n bytes of already-matched input.
func (t *Tokenizer) skip(n int) {
	for i := 0; i < n && t.ch != 0; {
		i += utf8.RuneLen(t.ch)
		t.advance()
	}
}

// TokenizeAll returns all tokens from the input, ending with TokenEOF.
func (t *Tokenizer) TokenizeAll() ([]*Token, error) {
	var tokens []*Token

	for {
		token, err := t.NextToken()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, token)

		if token.Type == TokenEOF {
			break
		}
	}

	return tokens, nil
}
