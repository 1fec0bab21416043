// Package queryparse splits a raw search-box query string into a free-text
// term plus optional locality filters, the way the original querysense
// `SearchString::parse` does: everything after the first "|" is filters,
// and a filters segment containing "," splits into province and city.
package queryparse

import "strings"

// Parsed is a raw query string split into its term and locality filters.
// Province and City are already normalized (see Normalize) but not yet
// SQL-wrapped with '%' wildcards — that is the Search Engine's job.
type Parsed struct {
	Term     string
	Province string
	City     string
}

// Parse splits raw on the first "|" into (term, filters). If filters
// contains a ",", it splits again into (province, city); otherwise the
// whole filters segment is treated as a province. Term, Province and City
// are all normalized.
func Parse(raw string) Parsed {
	term, filters, hasFilters := strings.Cut(raw, "|")
	term = Normalize(term)
	if !hasFilters {
		return Parsed{Term: term}
	}

	province, city, hasCity := strings.Cut(filters, ",")
	if !hasCity {
		return Parsed{Term: term, Province: Normalize(province)}
	}
	return Parsed{Term: term, Province: Normalize(province), City: Normalize(city)}
}

// Normalize lowercases s, trims leading/trailing non-alphabetic runes, and
// strips the literal word "province" — matching the original `normalize`
// helper used to fold locality spellings like "Buenos Aires Province"
// down to a comparable form.
func Normalize(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'))
	})
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "province", "")
	return s
}
