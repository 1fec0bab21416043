package queryparse_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/querysense/internal/queryparse"
)

func TestParseTermOnly(t *testing.T) {
	c := qt.New(t)
	p := queryparse.Parse("software engineer")
	c.Assert(p, qt.DeepEquals, queryparse.Parsed{Term: "software engineer"})
}

func TestParseTermWithProvince(t *testing.T) {
	c := qt.New(t)
	p := queryparse.Parse("software engineer|Santa Fe Province")
	c.Assert(p.Term, qt.Equals, "software engineer")
	c.Assert(p.Province, qt.Equals, "santa fe ")
	c.Assert(p.City, qt.Equals, "")
}

func TestParseTermWithProvinceAndCity(t *testing.T) {
	c := qt.New(t)
	p := queryparse.Parse("data analyst|Santa Fe,Rosario")
	c.Assert(p.Term, qt.Equals, "data analyst")
	c.Assert(p.Province, qt.Equals, "santa fe")
	c.Assert(p.City, qt.Equals, "rosario")
}

func TestNormalizeStripsProvinceWordAndPunctuation(t *testing.T) {
	c := qt.New(t)
	c.Assert(queryparse.Normalize("  Buenos Aires Province!! "), qt.Equals, "buenos aires ")
}
