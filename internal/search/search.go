// Package search implements the five ranking strategies over the Store's
// lexical and vector indexes: pure full-text, pure semantic, reciprocal
// rank fusion, keyword-first union, and semantic re-ranking of lexical
// candidates. SQL is transcribed from the original querysense
// `routes/mod.rs` handlers; the queryBuilder preserves the positional
// correspondence between appended SQL and appended bindings the way the
// original `SearchQuery` does.
package search

import (
	"context"
	"fmt"

	"github.com/go-ports/querysense/internal/embed"
	"github.com/go-ports/querysense/internal/models"
	"github.com/go-ports/querysense/internal/qerrors"
	"github.com/go-ports/querysense/internal/store"
)

// Strategy names a ranking strategy, parsed from the CLI/MCP-facing
// strings the original `SearchStrategy::try_from` accepts.
type Strategy int

const (
	StrategyFTS Strategy = iota
	StrategySemantic
	StrategyRRF
	StrategyKeywordFirst
	StrategyReRankBySemantics
)

// ParseStrategy maps a raw strategy name to a Strategy, matching the
// original's string constants exactly.
func ParseStrategy(raw string) (Strategy, error) {
	switch raw {
	case "fts":
		return StrategyFTS, nil
	case "semantic_search":
		return StrategySemantic, nil
	case "rrf":
		return StrategyRRF, nil
	case "hkf":
		return StrategyKeywordFirst, nil
	case "rrs":
		return StrategyReRankBySemantics, nil
	default:
		return 0, fmt.Errorf("%w: unknown search strategy %q", qerrors.ErrNotFound, raw)
	}
}

// defaultKNeighbors is the `k` bound passed to the vector index when the
// caller didn't specify one, matching the original's literal `k = 1000`.
const defaultKNeighbors = 1000

// rrfK is the reciprocal-rank-fusion smoothing constant.
const rrfK = 60

// Engine executes search strategies against a Store.
type Engine struct {
	Store    *store.Store
	Provider embed.Provider
}

// New returns an Engine backed by s, embedding query terms for the
// semantic-facing strategies via p.
func New(s *store.Store, p embed.Provider) *Engine {
	return &Engine{Store: s, Provider: p}
}

// Search dispatches params to the named strategy.
func (e *Engine) Search(ctx context.Context, strat Strategy, params models.SearchParams) ([]models.SearchResult, error) {
	switch strat {
	case StrategyFTS:
		return e.fts(ctx, params)
	case StrategySemantic:
		return e.semantic(ctx, params)
	case StrategyRRF:
		return e.rrf(ctx, params)
	case StrategyKeywordFirst:
		return e.keywordFirst(ctx, params)
	case StrategyReRankBySemantics:
		return e.reRankBySemantics(ctx, params)
	default:
		return nil, fmt.Errorf("%w: unhandled strategy %d", qerrors.ErrNotFound, strat)
	}
}

func kOrDefault(k uint64) uint64 {
	if k == 0 {
		return defaultKNeighbors
	}
	return k
}

// ---------------------------------------------------------------------------
// Strategy (a): pure lexical / FTS
// ---------------------------------------------------------------------------

func (e *Engine) fts(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	qb := &queryBuilder{}
	qb.push(`select rank as score, email, provincia, ciudad, edad, sexo,
		highlight(lex_record, 5, '<b style="color: green;">', '</b>') as template,
		'fts' as match_type
	from lex_record
	where template match `).bind("?", p.Term).
		push(` and edad between `).bind("?", p.AgeMin).
		push(` and `).bind("?", p.AgeMax)
	applyLocalityFilters(qb, p)

	qb.push(` order by rank`)
	sqlText, args := qb.build()

	rows, err := e.Store.DB().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: fts search: %v", qerrors.ErrSearch, err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		var rank float64
		if err := rows.Scan(&rank, &r.Email, &r.Province, &r.City, &r.Age, &r.Sex, &r.Template, &r.MatchType); err != nil {
			return nil, fmt.Errorf("%w: fts search scan: %v", qerrors.ErrSearch, err)
		}
		r.Score = rank * -1 // FTS5 rank is negative-best; negate so higher score = better, non-increasing in order
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Strategy (b): pure semantic / vector
// ---------------------------------------------------------------------------

func (e *Engine) semantic(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	embedding, err := e.Provider.Embed(ctx, p.Term)
	if err != nil {
		return nil, err
	}

	qb := &queryBuilder{}
	qb.push(`select vec_record.distance, record.email, record.provincia, record.ciudad,
		record.edad, record.sexo, record.template, 'vec' as match_type
	from vec_record
	left join record on record.id = vec_record.row_id
	where embedding match `).bind("?", store.EncodeVector(embedding)).
		push(` and k = `).bind("?", kOrDefault(p.KNeighbors)).
		push(` and record.edad between `).bind("?", p.AgeMin).
		push(` and `).bind("?", p.AgeMax)
	applyLocalityFiltersQualified(qb, p, "record")

	sqlText, args := qb.build()
	rows, err := e.Store.DB().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: semantic search: %v", qerrors.ErrSearch, err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		var distance float64
		if err := rows.Scan(&distance, &r.Email, &r.Province, &r.City, &r.Age, &r.Sex, &r.Template, &r.MatchType); err != nil {
			return nil, fmt.Errorf("%w: semantic search scan: %v", qerrors.ErrSearch, err)
		}
		r.Score = distance
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Strategy (c): reciprocal rank fusion
// ---------------------------------------------------------------------------

func (e *Engine) rrf(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	embedding, err := e.Provider.Embed(ctx, p.Term)
	if err != nil {
		return nil, err
	}

	weightFTS := normalizeWeight(p.WeightFTS)
	weightVec := normalizeWeight(p.WeightVector)

	qb := &queryBuilder{}
	qb.push(`with vec_matches as (
		select row_id, row_number() over (order by distance) as vec_rank
		from vec_record where embedding match `).bind("?", store.EncodeVector(embedding)).
		push(` and k = `).bind("?", kOrDefault(p.KNeighbors)).
		push(`),
	fts_matches as (
		select rowid as row_id, row_number() over (order by rank) as fts_rank
		from lex_record where template match `).bind("?", p.Term).
		push(`),
	fused as (
		select coalesce(f.row_id, v.row_id) as row_id, f.fts_rank, v.vec_rank
		from fts_matches f full outer join vec_matches v on f.row_id = v.row_id
	)
	select record.email, record.provincia, record.ciudad, record.edad, record.sexo, record.template,
		coalesce(1.0/(`).bind("?", rrfK).
		push(` + fused.fts_rank), 0) * `).bind("?", weightFTS).
		push(` + coalesce(1.0/(`).bind("?", rrfK).
		push(` + fused.vec_rank), 0) * `).bind("?", weightVec).
		push(` as combined_rank
	from fused join record on record.id = fused.row_id
	where record.edad between `).bind("?", p.AgeMin).
		push(` and `).bind("?", p.AgeMax)
	applyLocalityFiltersQualified(qb, p, "record")
	qb.push(` order by combined_rank desc`)

	sqlText, args := qb.build()
	rows, err := e.Store.DB().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: rrf search: %v", qerrors.ErrSearch, err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.Email, &r.Province, &r.City, &r.Age, &r.Sex, &r.Template, &r.CombinedRank); err != nil {
			return nil, fmt.Errorf("%w: rrf search scan: %v", qerrors.ErrSearch, err)
		}
		r.Score = r.CombinedRank
		r.MatchType = "rrf"
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Strategy (d): keyword-first union
// ---------------------------------------------------------------------------

func (e *Engine) keywordFirst(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	embedding, err := e.Provider.Embed(ctx, p.Term)
	if err != nil {
		return nil, err
	}

	qb := &queryBuilder{}
	qb.push(`with fts_matches as (
		select rowid as row_id, 'fts' as match_type from lex_record where template match `).bind("?", p.Term).
		push(`),
	vec_matches as (
		select row_id, 'vec' as match_type from vec_record where embedding match `).bind("?", store.EncodeVector(embedding)).
		push(` and k = `).bind("?", kOrDefault(p.KNeighbors)).
		push(`),
	unioned as (
		select row_id, match_type from fts_matches
		union all
		select row_id, match_type from vec_matches
	)
	select distinct record.email, record.provincia, record.ciudad, record.edad, record.sexo,
		record.template, unioned.match_type
	from unioned join record on record.id = unioned.row_id
	where record.edad between `).bind("?", p.AgeMin).
		push(` and `).bind("?", p.AgeMax)
	applyLocalityFiltersQualified(qb, p, "record")

	sqlText, args := qb.build()
	rows, err := e.Store.DB().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: keyword-first search: %v", qerrors.ErrSearch, err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.Email, &r.Province, &r.City, &r.Age, &r.Sex, &r.Template, &r.MatchType); err != nil {
			return nil, fmt.Errorf("%w: keyword-first search scan: %v", qerrors.ErrSearch, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Strategy (e): semantic re-rank of lexical candidates
// ---------------------------------------------------------------------------

func (e *Engine) reRankBySemantics(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	embedding, err := e.Provider.Embed(ctx, p.Term)
	if err != nil {
		return nil, err
	}

	qb := &queryBuilder{}
	qb.push(`with fts_matches as (
		select rowid as row_id, rank from lex_record where template match `).bind("?", p.Term).
		push(` and edad between `).bind("?", p.AgeMin).
		push(` and `).bind("?", p.AgeMax)
	applyLocalityFilters(qb, p)
	qb.push(`),
	candidates as (
		select vec_record.row_id, vec_record.embedding, fts_matches.rank
		from vec_record join fts_matches on fts_matches.row_id = vec_record.row_id
	)
	select record.email, record.provincia, record.ciudad, record.edad, record.sexo, record.template,
		candidates.rank, vec_distance_cosine(`).bind("?", store.EncodeVector(embedding)).
		push(`, candidates.embedding) as distance
	from candidates join record on record.id = candidates.row_id
	order by distance`)

	sqlText, args := qb.build()
	rows, err := e.Store.DB().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: semantic re-rank search: %v", qerrors.ErrSearch, err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		var rank, distance float64
		if err := rows.Scan(&r.Email, &r.Province, &r.City, &r.Age, &r.Sex, &r.Template, &rank, &distance); err != nil {
			return nil, fmt.Errorf("%w: semantic re-rank search scan: %v", qerrors.ErrSearch, err)
		}
		r.FTSRank = int64(rank)
		r.Score = rank * -1
		r.MatchType = "rrs"
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Shared filter helpers
// ---------------------------------------------------------------------------

// applyLocalityFilters adds the optional province/city/sex filters
// against unqualified column names (the FTS/RRS virtual-table queries).
// Omitting a filter (empty Province/City, Sex == "" or SexUnknown)
// widens the result set rather than narrowing it — required by the
// filter-composition property.
func applyLocalityFilters(qb *queryBuilder, p models.SearchParams) {
	if p.Province != "" {
		qb.addFilter("provincia like ?", "%"+p.Province+"%")
	}
	if p.City != "" {
		qb.addFilter("ciudad like ?", "%"+p.City+"%")
	}
	if p.Sex != "" && p.Sex != models.SexUnknown {
		qb.addFilter("sexo = ?", string(p.Sex))
	}
}

// applyLocalityFiltersQualified is applyLocalityFilters for queries that
// join against `record` under a table alias and so need qualified column
// references.
func applyLocalityFiltersQualified(qb *queryBuilder, p models.SearchParams, table string) {
	if p.Province != "" {
		qb.addFilter(table+".provincia like ?", "%"+p.Province+"%")
	}
	if p.City != "" {
		qb.addFilter(table+".ciudad like ?", "%"+p.City+"%")
	}
	if p.Sex != "" && p.Sex != models.SexUnknown {
		qb.addFilter(table+".sexo = ?", string(p.Sex))
	}
}

// normalizeWeight converts a 0..100 UI weight into the 0..1 range the
// RRF formula expects.
func normalizeWeight(w float32) float64 {
	return float64(w) / 100.0
}
