// Package commentcmd implements the `stride comment` command.
package commentcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
)

// Command implements `stride comment`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	space string
}

// New creates the comment command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "comment <kind> <id> <text...>",
		Short: "Comment on a flashcard, article or alert, or reply to a comment",
		Args:  cobra.MinimumNArgs(3),
		RunE:  c.run,
	}

	c.cmd.Flags().StringVar(&c.space, "space", "", "Space holding the target (enables the reply depth check)")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	target, err := shared.ParseTarget(args[0], args[1])
	if err != nil {
		return err
	}
	text := strings.Join(args[2:], " ")

	svc, err := c.ctx.OpenService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Comment(cmd.Context(), c.space, target, text); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Commented on %s %s\n", target.Kind, target.ID)
	return nil
}
