// Package shared holds the context passed to all CLI commands: the
// resolved database path, embedding provider credentials, and the text
// template, each sourced from an environment variable at the CLI
// boundary rather than by the packages they configure.
package shared

import (
	"os"

	"github.com/go-ports/querysense/internal/config"
)

// Context carries global CLI state resolved from flags, environment
// variables (DATABASE_URL, OPENAI_KEY, TEMPLATE), and config.yaml.
type Context struct {
	// DatabasePath overrides the database file location; falls back to
	// the DATABASE_URL environment variable, then config.yaml, then
	// "querysense.db".
	DatabasePath string

	// OpenAIKey overrides the embedding provider API key; falls back to
	// the OPENAI_KEY environment variable, then config.yaml.
	OpenAIKey string

	// Template overrides the text template; falls back to the TEMPLATE
	// environment variable, then config.yaml.
	Template string

	// ConfigPath is where ResolveConfig looks for config.yaml.
	ConfigPath string

	// LogLevel is one of "trace", "debug", "info".
	LogLevel string
}

// ResolveConfig loads config.yaml from c.ConfigPath (default
// "config.yaml"), then layers flag/env overrides on top of it for the
// fields this Context also understands.
func (c *Context) ResolveConfig() (*config.Config, error) {
	path := c.ConfigPath
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if c.DatabasePath != "" {
		cfg.DatabasePath = c.DatabasePath
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabasePath = v
	}

	if c.Template != "" {
		cfg.Template = c.Template
	} else if v := os.Getenv("TEMPLATE"); v != "" {
		cfg.Template = v
	}

	if c.OpenAIKey != "" {
		cfg.Embedding.APIKey = c.OpenAIKey
	} else if v := os.Getenv("OPENAI_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}

	return cfg, nil
}
