// Package tsl parses and evaluates TSL, a small typed filter expression
// language with a grammar similar to the WHERE part of SQL.
//
// TSL expressions describe predicates over records of named field values:
//
//	name = 'joe' or name = 'jane'
//	city in ('paris', 'rome', 'milan') and state != 'spain'
//	pages between 100 and 200 and author.name ~= 'Hilbert'
//	created_at > 2024-01-01 and not archived
//
// An expression string is compiled once with Parse into an immutable tree of
// Node values and then evaluated any number of times against a Context, a
// mapping from field name to Value:
//
//	node, err := tsl.Parse("status in ('active', 'pending') and book.pages > 100")
//	if err != nil {
//		// LexError or SyntaxError with source position
//	}
//
//	result, err := tsl.Evaluate(node, tsl.Context{
//		"status":     tsl.NewString("active"),
//		"book.pages": tsl.NewNumber(150),
//	})
//
// A parsed Node is never mutated, so a single tree may be evaluated
// concurrently from multiple goroutines, each call with its own Context.
//
// Beyond in-memory evaluation, the sqlfilter subpackage walks a parsed tree
// into a GORM WHERE clause, so the same filter string can select records
// directly in the database.
package tsl
