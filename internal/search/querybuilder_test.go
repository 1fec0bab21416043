package search

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestQueryBuilderPreservesBindingOrder(t *testing.T) {
	c := qt.New(t)

	qb := &queryBuilder{}
	qb.push("select 1 where a = ").bind("?", "x").
		push(" and b = ").bind("?", 42)
	qb.addFilter("c = ?", "y")

	sqlText, args := qb.build()
	c.Assert(sqlText, qt.Equals, "select 1 where a = ? and b = ? and c = ?")
	c.Assert(args, qt.DeepEquals, []any{"x", 42, "y"})
}
