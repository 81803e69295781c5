// Package browsecmd implements the `stride browse` command.
package browsecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
	"github.com/go-ports/stride/internal/tui"
)

// Command implements `stride browse`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the browse command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive two-pane browser",
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := c.ctx.OpenService()
	if err != nil {
		return err
	}
	defer svc.Close()

	snap := svc.Start(cmd.Context())
	if !snap.Authenticated() {
		return fmt.Errorf("not logged in (run `stride login`)")
	}
	return tui.Run(cmd.Context(), svc, tui.Options{
		Palette:  svc.Config.UI.ReactionPalette,
		MaxDepth: svc.Config.UI.MaxCommentDepth,
		UserID:   snap.User.ID,
		Events:   svc.Bus(),
	})
}
