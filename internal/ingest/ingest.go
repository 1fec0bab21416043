// Package ingest reads candidate records from CSV or JSON source files,
// sanitizes free-text fields, and hands them to the Store as raw_record
// rows. Grounded in the original querysense-sqlite `parse_and_insert` and
// querysense-common `TneaData`/`DataSources` definitions; HTML
// sanitization is done with bluemonday in place of the original's
// ammonia crate.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/go-ports/querysense/internal/models"
	"github.com/go-ports/querysense/internal/qerrors"
	"github.com/go-ports/querysense/internal/queryparse"
	"github.com/go-ports/querysense/internal/template"
)

// Source identifies how a file should be parsed, inferred from its
// extension (".csv" or ".json"), matching the original's DataSources enum.
type Source int

const (
	// SourceUnknown marks an extension the Ingestor does not recognize.
	SourceUnknown Source = iota
	SourceCSV
	SourceJSON
)

// SourceFromExtension maps a file extension (as returned by
// filepath.Ext, including the leading dot) to a Source.
func SourceFromExtension(ext string) Source {
	switch strings.ToLower(ext) {
	case ".csv":
		return SourceCSV
	case ".json":
		return SourceJSON
	default:
		return SourceUnknown
	}
}

// sanitizer strips markup from free-text fields before they are stored or
// folded into a template. A single policy is reused across files since
// bluemonday policies are safe for concurrent use.
var sanitizer = bluemonday.StrictPolicy()

// ParseFile reads path (a CSV or JSON source file) and returns its rows as
// RawRecord values with normalized localities and sanitized free text.
// The Source is inferred from the file extension; an unrecognized
// extension is an ErrIO.
func ParseFile(path string) ([]models.RawRecord, error) {
	src := SourceFromExtension(filepath.Ext(path))
	if src == SourceUnknown {
		return nil, fmt.Errorf("%w: unrecognized source extension for %s", qerrors.ErrIO, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", qerrors.ErrIO, path, err)
	}
	defer f.Close()

	switch src {
	case SourceCSV:
		return parseCSV(f)
	case SourceJSON:
		return parseJSON(f)
	default:
		return nil, fmt.Errorf("%w: unrecognized source extension for %s", qerrors.ErrIO, path)
	}
}

// csvHeader must cover at least these columns; extras are ignored, order
// is resolved by name rather than position.
var csvHeader = []string{
	"email", "nombre", "sexo", "fecha_nacimiento", "edad",
	"provincia", "ciudad", "descripcion", "estudios",
	"experiencia", "estudios_mas_recientes",
}

func parseCSV(r io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // flexible: short rows are padded by the caller below

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %v", qerrors.ErrDeserialization, err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, want := range csvHeader {
		if _, ok := colIdx[want]; !ok {
			return nil, fmt.Errorf("%w: CSV missing required column %q", qerrors.ErrDeserialization, want)
		}
	}

	get := func(row []string, col string) string {
		idx := colIdx[col]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var out []models.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading CSV row: %v", qerrors.ErrDeserialization, err)
		}
		rec := models.RawRecord{
			Email:         get(row, "email"),
			FullName:      get(row, "nombre"),
			Sex:           get(row, "sexo"),
			Birthdate:     get(row, "fecha_nacimiento"),
			Age:           parseAge(get(row, "edad")),
			Province:      queryparse.Normalize(get(row, "provincia")),
			City:          queryparse.Normalize(get(row, "ciudad")),
			Description:   sanitize(get(row, "descripcion")),
			Studies:       sanitize(get(row, "estudios")),
			Experience:    sanitize(get(row, "experiencia")),
			RecentStudies: sanitize(get(row, "estudios_mas_recientes")),
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseJSON(r io.Reader) ([]models.RawRecord, error) {
	var raw []models.RawRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding JSON source: %v", qerrors.ErrDeserialization, err)
	}
	for i := range raw {
		raw[i].Province = queryparse.Normalize(raw[i].Province)
		raw[i].City = queryparse.Normalize(raw[i].City)
		raw[i].Description = sanitize(raw[i].Description)
		raw[i].Studies = sanitize(raw[i].Studies)
		raw[i].Experience = sanitize(raw[i].Experience)
		raw[i].RecentStudies = sanitize(raw[i].RecentStudies)
	}
	return raw, nil
}

// parseAge coerces an "edad" field to a non-negative integer, defaulting
// to 0 for empty or unparsable input rather than rejecting the row, the
// way the original's `deserialize_number_from_string_including_empty` does.
func parseAge(s string) uint {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// sanitize strips markup from a free-text field so stored templates never
// carry HTML the original source happened to include.
func sanitize(s string) string {
	if s == "" {
		return ""
	}
	// Only text that looks like markup ("<" followed by a letter, "/" or
	// "!") goes through the sanitizer; plain text is returned unchanged.
	isHTML := false
	for i := 0; i+1 < len(s) && !isHTML; i++ {
		if s[i] == '<' {
			c := s[i+1]
			isHTML = c == '/' || c == '!' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		}
	}
	if !isHTML {
		return s
	}
	return strings.TrimSpace(sanitizer.Sanitize(s))
}

// ValidateAgainstTemplate checks that every field the compiled Template
// references corresponds to a known RawRecord column, catching a
// misconfigured --template before any rows are projected.
func ValidateAgainstTemplate(tmpl *template.Template) error {
	known := make(map[string]bool, len(csvHeader))
	for _, h := range csvHeader {
		known[h] = true
	}
	for _, f := range tmpl.Fields {
		if !known[f] {
			return fmt.Errorf("%w: template references unknown field %q", qerrors.ErrMalformedTemplate, f)
		}
	}
	return nil
}
