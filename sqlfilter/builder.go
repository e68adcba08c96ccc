package sqlfilter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nlstn/go-tsl"
)

// Build walks the expression into a condition string with positional `?`
// placeholders and the matching argument slice.
func Build(node tsl.Node, opts Options) (string, []interface{}, error) {
	b := &builder{opts: opts}
	if b.opts.Column == nil {
		b.opts.Column = defaultColumn
	}
	condition, err := b.walk(node)
	if err != nil {
		return "", nil, err
	}
	return condition, b.args, nil
}

type builder struct {
	opts Options
	args []interface{}
}

var binarySQL = map[tsl.BinaryOp]string{
	tsl.OpAdd: "+",
	tsl.OpSub: "-",
	tsl.OpMul: "*",
	tsl.OpDiv: "/",
	tsl.OpMod: "%",
	tsl.OpEq:  "=",
	tsl.OpNe:  "<>",
	tsl.OpLt:  "<",
	tsl.OpLe:  "<=",
	tsl.OpGt:  ">",
	tsl.OpGe:  ">=",
	tsl.OpAnd: "AND",
	tsl.OpOr:  "OR",
}

func (b *builder) walk(node tsl.Node) (string, error) {
	switch n := node.(type) {
	case *tsl.LiteralExpr:
		return b.literal(n)

	case *tsl.IdentifierExpr:
		column, err := b.opts.Column(n.Name)
		if err != nil {
			return "", err
		}
		return quoteIdent(column), nil

	case *tsl.UnaryExpr:
		operand, err := b.walk(n.Operand)
		if err != nil {
			return "", err
		}
		if n.Op == tsl.OpNot {
			return "NOT (" + operand + ")", nil
		}
		return "-(" + operand + ")", nil

	case *tsl.BinaryExpr:
		return b.binary(n)

	case *tsl.LikeExpr:
		return b.like(n)

	case *tsl.BetweenExpr:
		subject, err := b.walk(n.Subject)
		if err != nil {
			return "", err
		}
		low, err := b.walk(n.Low)
		if err != nil {
			return "", err
		}
		high, err := b.walk(n.High)
		if err != nil {
			return "", err
		}
		return "(" + subject + " BETWEEN " + low + " AND " + high + ")", nil

	case *tsl.InExpr:
		return b.in(n)

	case *tsl.IsNullExpr:
		subject, err := b.walk(n.Subject)
		if err != nil {
			return "", err
		}
		if n.Negated {
			return "(" + subject + " IS NOT NULL)", nil
		}
		return "(" + subject + " IS NULL)", nil

	case *tsl.AggregateExpr:
		return "", fmt.Errorf("%w: aggregate functions", ErrUnsupported)

	case *tsl.ListExpr:
		return "", fmt.Errorf("%w: list literals outside IN", ErrUnsupported)
	}

	return "", fmt.Errorf("%w: node type %T", ErrUnsupported, node)
}

// literal binds a literal value as a positional argument. Numeric literals
// are re-parsed from their raw lexeme so integers beyond the float64
// mantissa reach the database losslessly: an integer binds as int64 when it
// fits, as an exact decimal beyond that. Other numbers bind as float64,
// which sqlite and postgres both store natively.
func (b *builder) literal(n *tsl.LiteralExpr) (string, error) {
	v := n.Value
	switch v.Kind() {
	case tsl.KindNull:
		return "NULL", nil
	case tsl.KindNumber:
		if n.Lexeme != "" {
			if d, err := decimal.NewFromString(n.Lexeme); err == nil && d.IsInteger() {
				if bi := d.BigInt(); bi.IsInt64() {
					b.args = append(b.args, bi.Int64())
				} else {
					b.args = append(b.args, d)
				}
				return "?", nil
			}
		}
		b.args = append(b.args, v.Number())
		return "?", nil
	case tsl.KindBool:
		b.args = append(b.args, v.Bool())
		return "?", nil
	case tsl.KindString:
		b.args = append(b.args, v.Text())
		return "?", nil
	case tsl.KindDateTime:
		b.args = append(b.args, v.Time())
		return "?", nil
	}
	return "", fmt.Errorf("%w: %s literal", ErrUnsupported, v.Kind())
}

func (b *builder) binary(n *tsl.BinaryExpr) (string, error) {
	if n.Op == tsl.OpRegexEq || n.Op == tsl.OpRegexNe {
		return b.regex(n)
	}

	left, err := b.walk(n.Left)
	if err != nil {
		return "", err
	}
	right, err := b.walk(n.Right)
	if err != nil {
		return "", err
	}

	op, ok := binarySQL[n.Op]
	if !ok {
		return "", fmt.Errorf("%w: operator %d", ErrUnsupported, n.Op)
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

// regex translates `=~` / `!~`. PostgreSQL has native regex match
// operators; other dialects have no portable equivalent.
func (b *builder) regex(n *tsl.BinaryExpr) (string, error) {
	if b.opts.Dialect != "postgres" {
		return "", fmt.Errorf("%w: regex match on dialect %q", ErrUnsupported, b.opts.Dialect)
	}

	left, err := b.walk(n.Left)
	if err != nil {
		return "", err
	}
	right, err := b.walk(n.Right)
	if err != nil {
		return "", err
	}

	op := "~"
	if n.Op == tsl.OpRegexNe {
		op = "!~"
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

// like translates LIKE and ILIKE. TSL wildcards are SQL wildcards, so the
// pattern passes through unchanged. PostgreSQL supports ILIKE natively;
// elsewhere both sides are folded with LOWER.
func (b *builder) like(n *tsl.LikeExpr) (string, error) {
	subject, err := b.walk(n.Subject)
	if err != nil {
		return "", err
	}
	pattern, err := b.walk(n.Pattern)
	if err != nil {
		return "", err
	}

	if !n.CaseInsensitive {
		return "(" + subject + " LIKE " + pattern + ")", nil
	}
	if b.opts.Dialect == "postgres" {
		return "(" + subject + " ILIKE " + pattern + ")", nil
	}
	return "(LOWER(" + subject + ") LIKE LOWER(" + pattern + "))", nil
}

func (b *builder) in(n *tsl.InExpr) (string, error) {
	// An empty candidate list never matches; SQL IN () is invalid, so emit
	// a constant-false condition instead.
	if len(n.Candidates) == 0 {
		return "(1 = 0)", nil
	}

	subject, err := b.walk(n.Subject)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(n.Candidates))
	for i, c := range n.Candidates {
		part, err := b.walk(c)
		if err != nil {
			return "", err
		}
		parts[i] = part
	}

	return "(" + subject + " IN (" + strings.Join(parts, ", ") + "))", nil
}

// defaultColumn maps a TSL field name to a column name: each dotted path
// segment is converted to snake_case and the segments are joined with
// underscores ("author.firstName" -> "author_first_name").
func defaultColumn(field string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("sqlfilter: empty field name")
	}
	segments := strings.Split(field, ".")
	for i, segment := range segments {
		if segment == "" {
			return "", fmt.Errorf("sqlfilter: invalid field name %q", field)
		}
		segments[i] = toSnakeCase(segment)
	}
	return strings.Join(segments, "_"), nil
}

// toSnakeCase converts a field name to snake_case, keeping initialisms
// together ("ProductID" -> "product_id", "XMLParser" -> "xml_parser").
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(s[i-1])
			if prev >= 'a' && prev <= 'z' {
				result.WriteRune('_')
			} else if i < len(s)-1 {
				next := rune(s[i+1])
				if next >= 'a' && next <= 'z' {
					result.WriteRune('_')
				}
			}
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

// quoteIdent safely quotes identifiers in a portable way (double quotes work
// for sqlite and postgres). Embedded double quotes are escaped by doubling
// them per SQL standard.
func quoteIdent(ident string) string {
	if ident == "" {
		return ident
	}
	escaped := strings.ReplaceAll(ident, "\"", "\"\"")
	return "\"" + escaped + "\""
}
