// Package subscribecmd implements the `stride subscribe` command.
package subscribecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
)

// Command implements `stride subscribe`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the subscribe command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "subscribe <spaceId>",
		Short: "Toggle the subscription to a space",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.OpenService()
	if err != nil {
		return err
	}
	defer svc.Close()

	on, err := svc.ToggleSubscription(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if on {
		fmt.Fprintf(cmd.OutOrStdout(), "Subscribed to %s\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Unsubscribed from %s\n", args[0])
	}
	return nil
}
