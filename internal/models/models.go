// Package models defines the core data types shared across querysense.
package models

import "time"

// Sex is a three-valued enum serialized as a single character.
// Unknown input always decodes to SexUnknown; no implicit string coercions.
type Sex string

const (
	SexFemale  Sex = "F"
	SexMale    Sex = "M"
	SexUnknown Sex = "U"
)

// ParseSex maps a raw string to a Sex, defaulting to SexUnknown for anything
// that isn't exactly "F" or "M" (case-insensitive on the first letter).
func ParseSex(raw string) Sex {
	switch raw {
	case "F", "f":
		return SexFemale
	case "M", "m":
		return SexMale
	default:
		return SexUnknown
	}
}

// RawRecord is a single row as read from a source CSV or JSON file, before
// projection through the compiled template. Field names mirror the
// original querysense `TneaData` struct.
type RawRecord struct {
	Email         string `json:"email"`
	FullName      string `json:"nombre"`
	Sex           string `json:"sexo"`
	Birthdate     string `json:"fecha_nacimiento"`
	Age           uint   `json:"edad"`
	Province      string `json:"provincia"`
	City          string `json:"ciudad"`
	Description   string `json:"descripcion"`
	Studies       string `json:"estudios"`
	Experience    string `json:"experiencia"`
	RecentStudies string `json:"estudios_mas_recientes"`
}

// Record is a searchable row derived from a RawRecord: normalized
// localities and a synthesized template text, projected once via the
// compiled Template SQL expression.
type Record struct {
	ID           int64
	Email        string
	Province     string
	City         string
	Age          uint
	Sex          Sex
	TemplateText string
}

// HistoryEntry is a single past query, unique on QueryText.
type HistoryEntry struct {
	ID        int64
	QueryText string
	Timestamp time.Time
}

// SearchParams are the common parameters accepted by every search strategy.
type SearchParams struct {
	Term         string
	Province     string // substring filter (the Search Engine adds the % wildcards), or ""
	City         string // substring filter (the Search Engine adds the % wildcards), or ""
	Sex          Sex
	AgeMin       uint64
	AgeMax       uint64
	WeightFTS    float32 // 0..100
	WeightVector float32 // 0..100
	KNeighbors   uint64
}

// SearchResult is a single hit, strategy-tagged. Not every field is
// populated by every strategy; zero values mean "not applicable".
type SearchResult struct {
	Email        string
	Province     string
	City         string
	Age          uint64
	Sex          Sex
	Template     string // highlighted (FTS) or plain template text
	Score        float64
	MatchType    string // "fts" | "vec" | "rrf" | "rrs"
	FTSRank      int64  // RRS only
	VectorRank   int64  // not set by any strategy
	CombinedRank float64 // RRF only
}
