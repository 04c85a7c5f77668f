package query

import "strconv"

// Placeholder produces the parameter marker for the n-th bound value
// (1-based). Backends differ: SQLite uses "?", psycopg-style drivers use
// "%s", and ordinal dialects use "$1".."$n". Rendering threads a single
// ordinal counter through every nested subquery so ordinal dialects number
// correctly.
type Placeholder func(n int) string

var (
	// Question is the "?" placeholder style (SQLite, most drivers).
	Question Placeholder = func(int) string { return "?" }

	// Format is the "%s" placeholder style.
	Format Placeholder = func(int) string { return "%s" }

	// Dollar is the "$1".."$n" ordinal placeholder style.
	Dollar Placeholder = func(n int) string { return "$" + strconv.Itoa(n) }
)

// renderer accumulates bound values and placeholder ordinals during a single
// Render call. A fresh renderer per call keeps rendering idempotent: no
// stage is ever mutated.
type renderer struct {
	ph     Placeholder
	n      int
	values []any
}

// bind records v as the next bound value and returns its placeholder token.
func (r *renderer) bind(v any) string {
	r.n++
	r.values = append(r.values, v)
	return r.ph(r.n)
}
