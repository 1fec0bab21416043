package ingest_test

import (
	"os"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/querysense/internal/ingest"
	"github.com/go-ports/querysense/internal/template"
)

const csvSample = `email,nombre,sexo,fecha_nacimiento,edad,provincia,ciudad,descripcion,estudios,experiencia,estudios_mas_recientes
ana@example.com,Ana Perez,F,1990-01-01,35,Santa Fe Province,Rosario,<b>Backend</b> engineer,CS degree,5 years,Cloud cert
`

func TestParseFileCSV(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := dir + "/sample.csv"
	c.Assert(writeFile(path, csvSample), qt.IsNil)

	rows, err := ingest.ParseFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(rows, qt.HasLen, 1)
	c.Assert(rows[0].Email, qt.Equals, "ana@example.com")
	c.Assert(rows[0].Age, qt.Equals, uint(35))
	c.Assert(rows[0].Province, qt.Equals, "santa fe ")
	c.Assert(rows[0].City, qt.Equals, "rosario")
	c.Assert(rows[0].Description, qt.Equals, "Backend engineer")
}

func TestParseFileUnknownExtension(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := dir + "/sample.txt"
	c.Assert(writeFile(path, "irrelevant"), qt.IsNil)

	_, err := ingest.ParseFile(path)
	c.Assert(err, qt.ErrorMatches, ".*unrecognized source extension.*")
}

func TestValidateAgainstTemplateRejectsUnknownField(t *testing.T) {
	c := qt.New(t)
	tmpl, err := template.Compile("{{not_a_real_field}}")
	c.Assert(err, qt.IsNil)

	err = ingest.ValidateAgainstTemplate(tmpl)
	c.Assert(err, qt.ErrorMatches, ".*unknown field.*")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
