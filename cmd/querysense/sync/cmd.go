// Package synccmd implements the `querysense sync` command: ingest the
// source directory into raw_record/record and populate the lexical
// and/or vector indexes, mirroring the original's Sync subcommand.
package synccmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/querysense/cmd/querysense/shared"
	"github.com/go-ports/querysense/internal/embed"
	"github.com/go-ports/querysense/internal/ingest"
	"github.com/go-ports/querysense/internal/store"
	"github.com/go-ports/querysense/internal/template"
)

// sourceDir is the fixed directory sync scans for CSV/JSON source files,
// matching the original's hard-coded "./datasources/".
const sourceDir = "./datasources"

// Command implements `querysense sync`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	force       bool
	syncStrat   string
	timeBackoff uint
	model       string
}

// New creates the sync command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "sync",
		Short: "Populate the lexical and/or vector indexes",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.BoolVar(&c.force, "force", false, "Drop and rebuild record/raw/vec tables first")
	f.StringVarP(&c.syncStrat, "sync-strat", "S", "fts", "Sync strategy (fts, vector, all)")
	f.UintVar(&c.timeBackoff, "time-backoff", 0, "Base seconds for exponential backoff on rate limit (default: config.yaml sync.base_backoff_seconds)")
	f.StringVarP(&c.model, "model", "M", "", "Embedding provider (openai, local); default: config.yaml embedding.provider")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	if c.syncStrat != "fts" && c.syncStrat != "vector" && c.syncStrat != "all" {
		return fmt.Errorf("--sync-strat must be fts, vector, or all, got %q", c.syncStrat)
	}

	cfg, err := c.ctx.ResolveConfig()
	if err != nil {
		return err
	}

	tmpl, err := template.Compile(cfg.Template)
	if err != nil {
		return err
	}
	if err := ingest.ValidateAgainstTemplate(tmpl); err != nil {
		return err
	}

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	if c.force {
		if err := s.Reset(); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := c.ingestIfEmpty(s, tmpl); err != nil {
		return err
	}

	switch c.syncStrat {
	case "fts":
		if err := s.PopulateLexRecord(); err != nil {
			return err
		}
	case "vector":
		if err := c.syncVectors(cmd, s); err != nil {
			return err
		}
	case "all":
		if err := s.PopulateLexRecord(); err != nil {
			return err
		}
		if err := c.syncVectors(cmd, s); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sync finished in %s\n", time.Since(start))
	return nil
}

// ingestIfEmpty mirrors insert_base_data: a no-op if `record` already has
// rows, otherwise it scans sourceDir and bulk-projects everything found.
func (c *Command) ingestIfEmpty(s *store.Store, tmpl *template.Template) error {
	n, err := s.CountRecords()
	if err != nil {
		return err
	}
	if n != 0 {
		return nil
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("reading source directory %s: %w", sourceDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(sourceDir, entry.Name())
		rows, err := ingest.ParseFile(path)
		if err != nil {
			if ingest.SourceFromExtension(filepath.Ext(path)) == ingest.SourceUnknown {
				continue // skip files with no recognized extension, same as the original globbing only *.csv/*.json
			}
			return err
		}
		if _, err := s.InsertRawRecords(rows); err != nil {
			return err
		}
	}

	_, err = s.ProjectRecords(tmpl)
	return err
}

func (c *Command) syncVectors(cmd *cobra.Command, s *store.Store) error {
	cfg, err := c.ctx.ResolveConfig()
	if err != nil {
		return err
	}

	providerName, model := cfg.Embedding.Provider, cfg.Embedding.Model
	if c.model == "local" {
		providerName, model = "ollama", "nomic-embed-text"
	} else if c.model != "" {
		providerName = c.model
	}

	backoff := cfg.Sync.BaseBackoffSeconds
	if c.timeBackoff != 0 {
		backoff = c.timeBackoff
	}

	provider, err := embed.NewProvider(embed.Config{
		Provider:           providerName,
		Model:              model,
		APIKey:             cfg.Embedding.APIKey,
		BaseURL:            cfg.Embedding.BaseURL,
		MaxRetries:         cfg.Sync.MaxRetries,
		BaseBackoffSeconds: backoff,
	})
	if err != nil {
		return err
	}

	pipeline := embed.NewPipeline(provider, s)
	pipeline.ChunkSize = cfg.Sync.ChunkSize
	pipeline.Concurrency = int64(cfg.Sync.Concurrency)
	report, err := pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "embedded %d/%d chunks (%d rows)\n",
		report.ChunksOK, report.ChunksTotal, report.RowsEmbedded)
	for _, chunkErr := range report.ChunkErrors {
		fmt.Fprintf(cmd.ErrOrStderr(), "chunk error: %v\n", chunkErr)
	}
	return nil
}
