// Package embed provides the embedding Provider interface, two concrete
// implementations (OpenAI-compatible HTTP, local Ollama), and the
// Embedding Pipeline that walks a Store's projected records in bounded,
// retrying, chunked concurrency. Adapted from the teacher's
// internal/embeddings package; the retry/backoff algorithm is grounded
// in the original querysense-openai `embed_vec`/`request_embeddings`.
package embed

import (
	"context"
	"fmt"
)

// Provider is the interface every embedding backend implements. Only the
// shape is specified here; no concrete provider is assumed by the rest
// of querysense beyond this interface.
type Provider interface {
	// Embed returns a single vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, in the same order,
	// regardless of what order a backend returns them in.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config names which provider to construct and how to reach it.
type Config struct {
	Provider string // "openai" | "openrouter" | "ollama"
	Model    string
	APIKey   string
	BaseURL  string // override; defaults per-provider when empty

	// MaxRetries and BaseBackoffSeconds govern the OpenAI provider's
	// 429 retry loop; see OpenAI.EmbedBatch.
	MaxRetries        uint
	BaseBackoffSeconds uint
}

// NewProvider constructs a Provider from cfg.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return NewOllama(cfg.Model, baseURL), nil

	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.MaxRetries, cfg.BaseBackoffSeconds), nil

	case "openrouter":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
		return NewOpenAI(cfg.Model, cfg.APIKey, baseURL, cfg.MaxRetries, cfg.BaseBackoffSeconds), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
