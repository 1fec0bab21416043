// Package servecmd implements the `querysense serve` command. The HTTP
// serving layer itself is out of scope for this module (an external
// adapter concern); this command validates its flags and reports that
// the server is not available in this build rather than pretending to
// bind a socket.
package servecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/querysense/cmd/querysense/shared"
)

// Command implements `querysense serve`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	iface string
	port  int
	cache string
}

// New creates the serve command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service (not built into this binary)",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVarP(&c.iface, "interface", "I", "127.0.0.1", "Bind interface")
	f.IntVarP(&c.port, "port", "P", 3000, "Bind port")
	f.StringVarP(&c.cache, "cache", "C", "disabled", "Response cache (enabled, disabled)")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	if c.cache != "enabled" && c.cache != "disabled" {
		return fmt.Errorf("--cache must be enabled or disabled, got %q", c.cache)
	}
	return fmt.Errorf("serve is not implemented in this build: the HTTP serving layer is an external adapter, not part of the search/ingest/embed core (requested %s:%d, cache=%s)", c.iface, c.port, c.cache)
}
