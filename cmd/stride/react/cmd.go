// Package reactcmd implements the `stride react` command.
package reactcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
)

// Command implements `stride react`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	space string
}

// New creates the react command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "react <kind> <id> <emoji>",
		Short: "Add an emoji reaction to a feed item or comment",
		Args:  cobra.ExactArgs(3),
		RunE:  c.run,
	}

	c.cmd.Flags().StringVar(&c.space, "space", "", "Space holding the target")
	_ = c.cmd.MarkFlagRequired("space")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	target, err := shared.ParseTarget(args[0], args[1])
	if err != nil {
		return err
	}

	svc, err := c.ctx.OpenService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.React(cmd.Context(), c.space, target, args[2]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reacted %s on %s %s\n", args[2], target.Kind, target.ID)
	return nil
}
