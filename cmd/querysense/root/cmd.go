// Package rootcmd wires the root cobra.Command for the querysense CLI.
package rootcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	embedcmd "github.com/go-ports/querysense/cmd/querysense/embedcmd"
	mcpcmd "github.com/go-ports/querysense/cmd/querysense/mcp"
	servecmd "github.com/go-ports/querysense/cmd/querysense/serve"
	"github.com/go-ports/querysense/cmd/querysense/shared"
	synccmd "github.com/go-ports/querysense/cmd/querysense/sync"
)

var validLogLevels = map[string]bool{"trace": true, "debug": true, "info": true}

// New creates and returns the root cobra.Command for the querysense CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "querysense",
		Short:         "querysense — hybrid lexical/semantic search over candidate records",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !validLogLevels[ctx.LogLevel] {
				return fmt.Errorf("unknown log level %q: must be one of trace, debug, info", ctx.LogLevel)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&ctx.LogLevel, "log-level", "info", "Log level (trace, debug, info)")
	root.PersistentFlags().StringVar(&ctx.DatabasePath, "database", "", "Database file path (default: $DATABASE_URL, config.yaml, or querysense.db)")
	root.PersistentFlags().StringVar(&ctx.ConfigPath, "config", "config.yaml", "Path to config.yaml")
	root.PersistentFlags().StringVar(&ctx.Template, "template", "", "Text template (default: $TEMPLATE or config.yaml)")
	root.PersistentFlags().StringVar(&ctx.OpenAIKey, "openai-key", "", "Embedding provider API key (default: $OPENAI_KEY or config.yaml)")

	root.AddCommand(
		servecmd.New(ctx).Cmd(),
		synccmd.New(ctx).Cmd(),
		embedcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
