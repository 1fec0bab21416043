package search

import "strings"

// queryBuilder assembles a SQL statement and its bound parameters
// together, one clause at a time, so the two never drift apart — the Go
// equivalent of the original `SearchQuery` builder (`push_str`,
// `add_filter`, `add_bindings`). Every call that appends SQL text
// containing a "?" must be paired with exactly one call appending a
// binding, in the same order.
type queryBuilder struct {
	sql  strings.Builder
	args []any
}

// push appends a raw SQL fragment with no corresponding binding.
func (q *queryBuilder) push(fragment string) *queryBuilder {
	q.sql.WriteString(fragment)
	return q
}

// bind appends a single "?" placeholder's worth of SQL plus its value.
func (q *queryBuilder) bind(fragment string, value any) *queryBuilder {
	q.sql.WriteString(fragment)
	q.args = append(q.args, value)
	return q
}

// addFilter appends " and <clause>" and records its binding — used for
// the optional province/city/sex filters, which are omitted entirely
// (not bound as NULL) when the caller didn't supply a value.
func (q *queryBuilder) addFilter(clause string, value any) *queryBuilder {
	q.sql.WriteString(" and ")
	q.sql.WriteString(clause)
	q.args = append(q.args, value)
	return q
}

// build returns the finished statement and its positionally-matched args.
func (q *queryBuilder) build() (string, []any) {
	return q.sql.String(), q.args
}
