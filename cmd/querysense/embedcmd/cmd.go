// Package embedcmd implements the `querysense embed` command: print the
// embedding vector of a single piece of text, useful for spot-checking a
// provider without running a full sync.
package embedcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/querysense/cmd/querysense/shared"
	"github.com/go-ports/querysense/internal/embed"
)

// Command implements `querysense embed`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	input string
	model string
}

// New creates the embed command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "embed",
		Short: "Print the embedding vector of TEXT",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.input, "input", "", "Text to embed")
	f.StringVar(&c.model, "model", "openai", "Embedding model provider (openai, local)")
	_ = c.cmd.MarkFlagRequired("input")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.ResolveConfig()
	if err != nil {
		return err
	}

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

	vec, err := provider.Embed(cmd.Context(), c.input)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), vec)
	return nil
}
