// Package e2e_test — end-to-end embedding pipeline tests.
//
// Each test exercises the full ingest->project->embed->vector-search path
// using the real embed.Pipeline against lightweight in-process mock HTTP
// servers instead of real provider APIs.
package e2e_test

import (
	"context"
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/go-ports/querysense/internal/embed"
	"github.com/go-ports/querysense/internal/history"
	"github.com/go-ports/querysense/internal/mcptools"
	"github.com/go-ports/querysense/internal/models"
	"github.com/go-ports/querysense/internal/search"
	"github.com/go-ports/querysense/internal/store"
	"github.com/go-ports/querysense/internal/template"
)

// newMCPClientWithEmbedding wires a real store, ingests one row, runs the
// real embed.Pipeline against a provider pointed at baseURL, and returns
// an in-process MCP client over the resulting index.
func newMCPClientWithEmbedding(c *qt.C, provider, baseURL string) *mcpclient.Client {
	c.TB.Helper()

	s, err := store.Open(c.TB.TempDir() + "/test.db")
	c.Assert(err, qt.IsNil)
	c.TB.Cleanup(func() { _ = s.Close() })

	tmpl, err := template.Compile("{{email}} - {{descripcion}}")
	c.Assert(err, qt.IsNil)

	_, err = s.InsertRawRecords([]models.RawRecord{{
		Email: "ana@example.com", Description: "Ana is a backend engineer", Age: 30,
	}})
	c.Assert(err, qt.IsNil)
	_, err = s.ProjectRecords(tmpl)
	c.Assert(err, qt.IsNil)
	c.Assert(s.PopulateLexRecord(), qt.IsNil)

	p, err := embed.NewProvider(embed.Config{Provider: provider, Model: "test-model", BaseURL: baseURL})
	c.Assert(err, qt.IsNil)

	pipeline := embed.NewPipeline(p, s)
	report, err := pipeline.Run(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(report.ChunksOK, qt.Equals, 1)

	deps := mcptools.Deps{
		Engine:  search.New(s, p),
		History: history.New(s),
	}

	cl, err := mcpclient.NewInProcessClient(mcptools.NewServer(deps))
	c.Assert(err, qt.IsNil)
	c.TB.Cleanup(func() { _ = cl.Close() })

	c.Assert(cl.Start(context.Background()), qt.IsNil)

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "e2e-test", Version: "0.0.1"}
	_, err = cl.Initialize(context.Background(), initReq)
	c.Assert(err, qt.IsNil)

	return cl
}

// TestMCPSemanticSearchWithEmbedding_HappyPath embeds one row via each
// configured provider and then issues a semantic_search MCP call,
// exercising the vec0 nearest-neighbor path end-to-end.
func TestMCPSemanticSearchWithEmbedding_HappyPath(t *testing.T) {
	c := qt.New(t)

	for _, tc := range embeddingCases {
		c.Run(tc.provider, func(c *qt.C) {
			srv := tc.startSrv(c.TB)
			cl := newMCPClientWithEmbedding(c, tc.provider, srv.URL)

			text := callTool(c, cl, "search", map[string]any{
				"strategy": "semantic_search",
				"term":     "backend engineer",
			})

			var results []map[string]any
			c.Assert(json.Unmarshal([]byte(text), &results), qt.IsNil)
			c.Assert(results, qt.HasLen, 1)
			c.Assert(results[0]["email"], qt.Equals, "ana@example.com")
		})
	}
}

// TestMCPRRFWithEmbedding_HappyPath exercises the reciprocal-rank-fusion
// strategy, which needs both the lexical and vector indexes populated.
func TestMCPRRFWithEmbedding_HappyPath(t *testing.T) {
	c := qt.New(t)

	srv := newOpenAIMockServer(c.TB)
	cl := newMCPClientWithEmbedding(c, "openai", srv.URL)

	text := callTool(c, cl, "search", map[string]any{
		"strategy": "rrf",
		"term":     "engineer",
	})

	var results []map[string]any
	c.Assert(json.Unmarshal([]byte(text), &results), qt.IsNil)
	c.Assert(results, qt.Not(qt.HasLen), 0)
}
