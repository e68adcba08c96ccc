package tsl

import (
	"strings"
	"time"
)

// TokenType represents the type of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdentifier
	TokenString
	TokenNumber
	TokenDate
	TokenBoolean
	TokenNull
	TokenKeyword
	TokenOperator
	TokenArithmetic
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenComma
)

// tokenTypeNames maps token types to names used in error messages.
var tokenTypeNames = map[TokenType]string{
	TokenEOF:        "end of input",
	TokenIdentifier: "identifier",
	TokenString:     "string literal",
	TokenNumber:     "number literal",
	TokenDate:       "date literal",
	TokenBoolean:    "boolean literal",
	TokenNull:       "null",
	TokenKeyword:    "keyword",
	TokenOperator:   "operator",
	TokenArithmetic: "arithmetic operator",
	TokenLParen:     "'('",
	TokenRParen:     "')'",
	TokenLBracket:   "'['",
	TokenRBracket:   "']'",
	TokenComma:      "','",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "unknown token"
}

// Position identifies a location in the source string. Offset is the byte
// offset from the start of the input; Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Token represents a single lexical unit of a filter expression.
//
// Value holds the decoded payload: the unescaped text for string literals,
// the lowercased keyword for keywords, the raw lexeme otherwise. Number holds
// the parsed value for number literals and Date the parsed instant for date
// literals.
type Token struct {
	Type   TokenType
	Value  string
	Number float64
	Date   time.Time
	Pos    Position
}

// keywords maps lowercased keyword text to its token classification.
// Keyword matching is case-insensitive; identifiers are case-sensitive.
var keywords = map[string]TokenType{
	"and":     TokenKeyword,
	"or":      TokenKeyword,
	"not":     TokenKeyword,
	"like":    TokenKeyword,
	"ilike":   TokenKeyword,
	"between": TokenKeyword,
	"in":      TokenKeyword,
	"is":      TokenKeyword,
	"len":     TokenKeyword,
	"any":     TokenKeyword,
	"all":     TokenKeyword,
	"sum":     TokenKeyword,
	"true":    TokenBoolean,
	"false":   TokenBoolean,
	"null":    TokenNull,
}

// lookupKeyword classifies an identifier-shaped lexeme. It returns the
// canonical (lowercased) keyword text and its token type, or ok=false when
// the lexeme is a plain identifier.
func lookupKeyword(lexeme string) (string, TokenType, bool) {
	lower := strings.ToLower(lexeme)
	if tt, ok := keywords[lower]; ok {
		return lower, tt, true
	}
	return "", TokenIdentifier, false
}
