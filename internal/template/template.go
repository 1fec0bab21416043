// Package template compiles a user-supplied "{{field}}" placeholder string
// into a SQL concatenation expression plus the ordered list of referenced
// field names, the way the original querysense `configuration.rs`
// `TryFrom<String> for Template` does.
package template

import (
	"fmt"
	"strings"

	"github.com/go-ports/querysense/internal/qerrors"
)

// Template is a compiled text template: a SQL scalar expression that
// evaluates to the template text for a row, plus the ordered field names
// it references (used by the Ingestor to validate CSV headers).
type Template struct {
	SQL    string
	Fields []string
}

// Compile parses raw, a string containing zero or more "{{field}}"
// placeholders with literal label text around them, into a Template.
//
// Each placeholder's preceding literal (trimmed) becomes a quoted SQL
// string literal, the field name (trimmed) becomes a bare column
// reference, and the two are joined by " || ". A dangling trailing " ||"
// left by an elided final literal is trimmed; any remaining trailing
// literal text (trimmed) is appended as a last quoted literal term.
func Compile(raw string) (*Template, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: template must not be empty", qerrors.ErrMalformedTemplate)
	}

	var fields []string
	var sql strings.Builder

	start := 0
	for {
		openRel := strings.Index(raw[start:], "{{")
		if openRel < 0 {
			break
		}
		openIdx := start + openRel
		closeRel := strings.Index(raw[openIdx:], "}}")
		if closeRel < 0 {
			return nil, fmt.Errorf("%w: unclosed '{{'", qerrors.ErrMalformedTemplate)
		}
		closeIdx := openIdx + closeRel

		field := strings.TrimSpace(raw[openIdx+2 : closeIdx])
		fields = append(fields, field)

		label := strings.TrimSpace(raw[start:openIdx])

		if sql.Len() > 0 {
			sql.WriteByte(' ')
		}
		fmt.Fprintf(&sql, "' %s ' || %s ||", label, field)

		start = closeIdx + len("}}")
	}

	out := sql.String()
	out = strings.TrimSuffix(out, " ||")

	if start < len(raw) {
		remaining := strings.TrimSpace(raw[start:])
		if remaining != "" {
			if out != "" {
				out += " || "
			}
			out += fmt.Sprintf("' %s '", remaining)
		}
	}

	return &Template{SQL: out, Fields: fields}, nil
}
