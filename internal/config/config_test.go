package config_test

import (
	"os"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/querysense/internal/config"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	c := qt.New(t)
	cfg, err := config.Load(t.TempDir() + "/missing.yaml")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, config.Default())
}

func TestLoadAppliesPartialOverride(t *testing.T) {
	c := qt.New(t)
	path := t.TempDir() + "/config.yaml"
	c.Assert(os.WriteFile(path, []byte(`
embedding:
  provider: ollama
  model: nomic-embed-text
sync:
  concurrency: 10
`), 0o644), qt.IsNil)

	cfg, err := config.Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Embedding.Provider, qt.Equals, "ollama")
	c.Assert(cfg.Embedding.Model, qt.Equals, "nomic-embed-text")
	c.Assert(cfg.Sync.Concurrency, qt.Equals, 10)
	c.Assert(cfg.Sync.ChunkSize, qt.Equals, 2048) // untouched, keeps default
	c.Assert(cfg.DatabasePath, qt.Equals, "querysense.db")
}
