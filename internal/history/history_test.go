package history_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/querysense/internal/history"
	"github.com/go-ports/querysense/internal/store"
)

func TestRecordIsIdempotent(t *testing.T) {
	c := qt.New(t)
	s, err := store.Open(t.TempDir() + "/test.db")
	c.Assert(err, qt.IsNil)
	defer s.Close()

	h := history.New(s)
	c.Assert(h.Record("ana"), qt.IsNil)
	c.Assert(h.Record("ana"), qt.IsNil)
	c.Assert(h.Record("ana"), qt.IsNil)

	entries, err := h.List()
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
	c.Assert(entries[0].QueryText, qt.Equals, "ana")
}
