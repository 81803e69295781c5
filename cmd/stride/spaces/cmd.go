// Package spacescmd implements the `stride spaces` command.
package spacescmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
	"github.com/go-ports/stride/internal/spaces"
	"github.com/go-ports/stride/internal/view"
)

// Command implements `stride spaces`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	subscribed bool
	flat       bool
}

// New creates the spaces command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "spaces",
		Short: "List spaces as a tree",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.BoolVar(&c.subscribed, "subscribed", false, "Only show spaces you are subscribed to")
	f.BoolVar(&c.flat, "flat", false, "Print one id and name per line")

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

	mode := spaces.ModeAll
	if c.subscribed {
		mode = spaces.ModeSubscribed
	}
	list, err := svc.Spaces(cmd.Context(), mode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, view.NoSpaces)
		return nil
	}

	rows := spaces.ExpandedRows(list)
	if !c.flat {
		fmt.Fprintln(out, view.Tree(rows))
		return nil
	}
	for _, row := range rows {
		leaf := ""
		if !row.Space.IsLeaf() {
			leaf = "/"
		}
		fmt.Fprintf(out, "%s\t%s%s\n", row.Space.ID, row.Space.Name, leaf)
	}
	return nil
}
