package template_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/querysense/internal/qerrors"
	"github.com/go-ports/querysense/internal/template"
)

func TestCompileRoundTrip(t *testing.T) {
	c := qt.New(t)

	tpl, err := template.Compile("name {{nombre}} lives in {{ciudad}}")
	c.Assert(err, qt.IsNil)
	c.Assert(tpl.Fields, qt.DeepEquals, []string{"nombre", "ciudad"})
	c.Assert(tpl.SQL, qt.Equals, "' name ' || nombre || ' lives in ' || ciudad")
}

func TestCompileTrailingLiteral(t *testing.T) {
	c := qt.New(t)

	tpl, err := template.Compile("{{email}} says hello")
	c.Assert(err, qt.IsNil)
	c.Assert(tpl.Fields, qt.DeepEquals, []string{"email"})
	c.Assert(tpl.SQL, qt.Equals, "'  ' || email || ' says hello '")
}

func TestCompileSingleField(t *testing.T) {
	c := qt.New(t)

	tpl, err := template.Compile("{{descripcion}}")
	c.Assert(err, qt.IsNil)
	c.Assert(tpl.Fields, qt.DeepEquals, []string{"descripcion"})
	c.Assert(tpl.SQL, qt.Equals, "'  ' || descripcion")
}

func TestCompileEmptyRejected(t *testing.T) {
	c := qt.New(t)

	_, err := template.Compile("")
	c.Assert(err, qt.ErrorIs, qerrors.ErrMalformedTemplate)
}

func TestCompileUnclosedPlaceholderRejected(t *testing.T) {
	c := qt.New(t)

	_, err := template.Compile("hello {{name")
	c.Assert(err, qt.ErrorIs, qerrors.ErrMalformedTemplate)
}
