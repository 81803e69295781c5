// Package setupcmd implements the `stride setup` command.
package setupcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
	"github.com/go-ports/stride/internal/setup"
)

// Command implements `stride setup`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	configDir string
	project   bool
	remove    bool
}

// New creates the setup command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:       "setup <claude-code|cursor|codex|opencode>",
		Short:     "Register the stride MCP server with a coding agent",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"claude-code", "cursor", "codex", "opencode"},
		RunE:      c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.configDir, "config-dir", "", "Path to the agent's config directory")
	f.BoolVar(&c.project, "project", false, "Write the project config in the current directory instead of the user one")
	f.BoolVar(&c.remove, "remove", false, "Remove the stride entry instead of adding it")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	agent, err := setup.ParseAgent(args[0])
	if err != nil {
		return err
	}

	o := setup.Options{ConfigDir: c.configDir, Project: c.project}
	if exe, err := os.Executable(); err == nil {
		o.Binary = exe
	}

	var res setup.Result
	if c.remove {
		res, err = setup.Uninstall(agent, o)
	} else {
		res, err = setup.Install(agent, o)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}
