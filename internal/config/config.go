// Package config handles YAML configuration for the embedding provider,
// sync tuning, and the templated-text schema. Environment variable
// resolution (DATABASE_URL, OPENAI_KEY, TEMPLATE) is the CLI adapter's
// job, not this package's; Load only understands config.yaml.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig holds settings for the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "openai" | "openrouter" | "ollama"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"` // #nosec G117 -- APIKey is an intentional field name for the embedding provider's authentication token
}

// SyncConfig tunes the Embedding Pipeline's chunking, concurrency, and
// retry/backoff behavior.
type SyncConfig struct {
	ChunkSize          int `yaml:"chunk_size"`
	Concurrency        int `yaml:"concurrency"`
	MaxRetries         uint `yaml:"max_retries"`
	BaseBackoffSeconds uint `yaml:"base_backoff_seconds"`
}

// Config is the root configuration for a querysense deployment.
type Config struct {
	DatabasePath string          `yaml:"database_path"`
	Template     string          `yaml:"template"`
	Embedding    EmbeddingConfig `yaml:"embedding"`
	Sync         SyncConfig      `yaml:"sync"`
}

// Default returns a Config populated with sensible defaults, matching
// the CLI's own flag defaults (`sync --time-backoff 5`, the original's
// chunk size of 2048 and concurrency of 5).
func Default() *Config {
	return &Config{
		DatabasePath: "querysense.db",
		Template:     "{{descripcion}}",
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Sync: SyncConfig{
			ChunkSize:          2048,
			Concurrency:        5,
			MaxRetries:         3,
			BaseBackoffSeconds: 5,
		},
	}
}

// Load reads config.yaml from path, applying only the keys present in
// the file over Default(); a missing file is not an error. Unmarshalling
// into a plain map first (rather than directly into Config) means an
// absent key keeps its default rather than being zeroed.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if v, ok := raw["database_path"].(string); ok && v != "" {
		cfg.DatabasePath = v
	}
	if v, ok := raw["template"].(string); ok && v != "" {
		cfg.Template = v
	}

	if emb, ok := raw["embedding"].(map[string]any); ok {
		if v, ok := emb["provider"].(string); ok && v != "" {
			cfg.Embedding.Provider = v
		}
		if v, ok := emb["model"].(string); ok && v != "" {
			cfg.Embedding.Model = v
		}
		if v, ok := emb["base_url"].(string); ok {
			cfg.Embedding.BaseURL = v
		}
		if v, ok := emb["api_key"].(string); ok {
			cfg.Embedding.APIKey = v
		}
	}

	if sc, ok := raw["sync"].(map[string]any); ok {
		if v, ok := sc["chunk_size"].(int); ok && v > 0 {
			cfg.Sync.ChunkSize = v
		}
		if v, ok := sc["concurrency"].(int); ok && v > 0 {
			cfg.Sync.Concurrency = v
		}
		if v, ok := sc["max_retries"].(int); ok && v >= 0 {
			cfg.Sync.MaxRetries = uint(v)
		}
		if v, ok := sc["base_backoff_seconds"].(int); ok && v >= 0 {
			cfg.Sync.BaseBackoffSeconds = uint(v)
		}
	}

	return cfg, nil
}
