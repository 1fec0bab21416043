// Package mcptools provides the stdio MCP server exposing search and
// history tools for coding agents, adapted from the teacher's
// internal/mcp server registration pattern.
package mcptools

import (
	"context"
	"encoding/json"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/querysense/internal/buildinfo"
	"github.com/go-ports/querysense/internal/history"
	"github.com/go-ports/querysense/internal/models"
	"github.com/go-ports/querysense/internal/search"
)

const searchDescription = `Search candidate records using one of five ranking strategies: fts (pure lexical), semantic_search (pure dense-vector), rrf (reciprocal rank fusion of both), hkf (keyword-first union), or rrs (semantic re-rank of lexical candidates). Filters by age range, sex, province, and city are optional; omitting one widens the result set.`

const historyDescription = `List previously executed search queries, most recent first. Use this to suggest a prior query or avoid repeating a search that already ran.`

// Deps bundles the components the MCP tools are thin wrappers over.
type Deps struct {
	Engine  *search.Engine
	History *history.History
}

// NewServer creates and registers the search/history tools on a new MCP server.
func NewServer(deps Deps) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("querysense", buildinfo.Version)
	registerTools(s, deps)
	return s
}

// Serve starts the stdio MCP server, blocking until stdin closes.
func Serve(_ context.Context, deps Deps) error {
	return mcpserver.ServeStdio(NewServer(deps))
}

func registerTools(s *mcpserver.MCPServer, deps Deps) {
	s.AddTool(mcp.NewTool("search",
		mcp.WithDescription(searchDescription),
		mcp.WithString("strategy",
			mcp.Description("fts, semantic_search, rrf, hkf, or rrs"),
			mcp.Required(),
		),
		mcp.WithString("term", mcp.Description("Free-text search term"), mcp.Required()),
		mcp.WithString("province", mcp.Description("Province filter, substring match")),
		mcp.WithString("city", mcp.Description("City filter, substring match")),
		mcp.WithString("sex", mcp.Description("F, M, or omitted for any")),
		mcp.WithNumber("age_min", mcp.Description("Minimum age (default 0)")),
		mcp.WithNumber("age_max", mcp.Description("Maximum age (default 120)")),
		mcp.WithNumber("weight_fts", mcp.Description("rrf only: 0-100 weight for the lexical score")),
		mcp.WithNumber("weight_vector", mcp.Description("rrf only: 0-100 weight for the vector score")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSearch(ctx, deps, req)
	})

	s.AddTool(mcp.NewTool("history",
		mcp.WithDescription(historyDescription),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleHistory(ctx, deps, req)
	})
}

func handleSearch(ctx context.Context, deps Deps, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	strat, err := search.ParseStrategy(req.GetString("strategy", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	term := req.GetString("term", "")
	params := models.SearchParams{
		Term:         term,
		Province:     req.GetString("province", ""),
		City:         req.GetString("city", ""),
		Sex:          models.ParseSex(req.GetString("sex", "")),
		AgeMin:       uint64(req.GetInt("age_min", 0)),
		AgeMax:       uint64(req.GetInt("age_max", 120)),
		WeightFTS:    float32(req.GetFloat("weight_fts", 50)),
		WeightVector: float32(req.GetFloat("weight_vector", 50)),
	}

	if err := deps.History.Record(term); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := deps.Engine.Search(ctx, strat, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	clean := make([]map[string]any, 0, len(results))
	for _, r := range results {
		clean = append(clean, map[string]any{
			"email":     r.Email,
			"province":  r.Province,
			"city":      r.City,
			"age":       r.Age,
			"sex":       r.Sex,
			"template":  r.Template,
			"score":     roundTwo(r.Score),
			"matchType": r.MatchType,
		})
	}
	return jsonResult(clean)
}

func handleHistory(_ context.Context, deps Deps, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := deps.History.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	clean := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		clean = append(clean, map[string]any{
			"queryText": e.QueryText,
			"timestamp": e.Timestamp,
		})
	}
	return jsonResult(clean)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func roundTwo(f float64) float64 {
	return math.Round(f*100) / 100
}
