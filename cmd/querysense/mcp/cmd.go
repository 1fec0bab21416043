// Package mcpcmd implements `querysense mcp`: run the search/history MCP
// tool server over stdio, for wiring into coding agents and editors.
package mcpcmd

import (
	"github.com/spf13/cobra"

	"github.com/go-ports/querysense/cmd/querysense/shared"
	"github.com/go-ports/querysense/internal/embed"
	"github.com/go-ports/querysense/internal/history"
	"github.com/go-ports/querysense/internal/mcptools"
	"github.com/go-ports/querysense/internal/search"
	"github.com/go-ports/querysense/internal/store"
	"github.com/go-ports/querysense/internal/template"
)

// Command implements `querysense mcp`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	model string
}

// New creates the mcp command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "mcp",
		Short: "Run the search/history MCP tool server over stdio",
		RunE:  c.run,
	}

	c.cmd.Flags().StringVarP(&c.model, "model", "M", "openai", "Embedding model used by the search tool (openai, local)")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.ResolveConfig()
	if err != nil {
		return err
	}
	if _, err := template.Compile(cfg.Template); err != nil {
		return err
	}

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	providerName, model := cfg.Embedding.Provider, cfg.Embedding.Model
	if c.model == "local" {
		providerName, model = "ollama", "nomic-embed-text"
	} else if c.model != "" && c.model != "openai" {
		providerName = c.model
	}
	provider, err := embed.NewProvider(embed.Config{
		Provider:           providerName,
		Model:              model,
		APIKey:             cfg.Embedding.APIKey,
		BaseURL:            cfg.Embedding.BaseURL,
		MaxRetries:         cfg.Sync.MaxRetries,
		BaseBackoffSeconds: cfg.Sync.BaseBackoffSeconds,
	})
	if err != nil {
		return err
	}

	deps := mcptools.Deps{
		Engine:  search.New(s, provider),
		History: history.New(s),
	}

	return mcptools.Serve(cmd.Context(), deps)
}
