// Package sqlfilter walks a parsed TSL expression into a SQL WHERE clause
// applied through GORM, so the same filter string a host evaluates in memory
// can also select records directly in the database.
//
// Usage:
//
//	node, err := tsl.Parse("status = 'active' and pages between 100 and 200")
//	...
//	db, err = sqlfilter.Apply(db, node)
//	...
//	db.Find(&books)
//
// Only the subset of TSL with a portable SQL form is supported: aggregate
// functions and bracketed list literals have no column translation and fail
// with ErrUnsupported. Regex equality is translated for PostgreSQL only.
package sqlfilter

import (
	"errors"

	"gorm.io/gorm"

	"github.com/nlstn/go-tsl"
)

// ErrUnsupported indicates a TSL construct with no SQL translation.
var ErrUnsupported = errors.New("sqlfilter: expression has no SQL translation")

// ColumnFunc maps a TSL field name to a database column name. The returned
// name is quoted by the builder; it must not contain quoting of its own.
type ColumnFunc func(field string) (string, error)

// Options configures the SQL builder.
type Options struct {
	// Dialect is the target SQL dialect name (e.g. "sqlite", "postgres").
	// Apply fills it from the GORM dialector; Build callers set it directly.
	Dialect string

	// Column maps field names to column names. Defaults to snake_case with
	// dots ("author.name") flattened to underscores.
	Column ColumnFunc
}

// Apply appends the filter expression to the query as a WHERE condition.
func Apply(db *gorm.DB, node tsl.Node, opts ...Options) (*gorm.DB, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Dialect == "" {
		o.Dialect = dialectOf(db)
	}

	condition, args, err := Build(node, o)
	if err != nil {
		return nil, err
	}

	return db.Where(condition, args...), nil
}

// dialectOf returns the active database dialect name (e.g. "sqlite",
// "postgres").
func dialectOf(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	return db.Dialector.Name()
}
