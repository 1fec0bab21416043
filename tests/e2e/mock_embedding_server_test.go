// Package e2e_test — shared mock HTTP server helpers for embedding provider
// tests. These helpers let e2e tests exercise the full
// ingest->project->embed->vector-search pipeline without calling real
// external embedding APIs.
package e2e_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fixedEmbeddingVec is the deterministic vector returned by every mock
// embedding server. Two dimensions keeps tests fast.
var fixedEmbeddingVec = []float32{0.1, 0.2}

// embeddingCase describes one provider variant for table-driven tests.
type embeddingCase struct {
	provider string
	startSrv func(tb testing.TB) *httptest.Server
}

var embeddingCases = []embeddingCase{
	{provider: "ollama", startSrv: func(tb testing.TB) *httptest.Server { return newOllamaMockServer(tb) }},
	{provider: "openai", startSrv: func(tb testing.TB) *httptest.Server { return newOpenAIMockServer(tb) }},
}

// newOllamaMockServer mimics the Ollama embeddings API: POST
// /api/embeddings returns fixedEmbeddingVec for every request.
func newOllamaMockServer(tb testing.TB) *httptest.Server {
	tb.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": fixedEmbeddingVec})
	})

	srv := httptest.NewServer(mux)
	tb.Cleanup(srv.Close)
	return srv
}

// newOpenAIMockServer mimics the OpenAI embeddings API (POST /embeddings):
// it builds a correctly-indexed data entry for every input text.
func newOpenAIMockServer(tb testing.TB) *httptest.Server {
	tb.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, len(reqBody.Input))
		for i := range reqBody.Input {
			data[i] = map[string]any{"index": i, "embedding": fixedEmbeddingVec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	tb.Cleanup(srv.Close)
	return srv
}
