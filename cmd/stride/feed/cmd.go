// Package feedcmd implements the `stride feed` command.
package feedcmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
	"github.com/go-ports/stride/internal/markdown"
	"github.com/go-ports/stride/internal/redaction"
	"github.com/go-ports/stride/internal/view"
)

// Command implements `stride feed`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	format string
	out    string
	width  int
}

// New creates the feed command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "feed <spaceId>",
		Short: "Show the feed of a leaf space",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.format, "format", "text", "Output format: text, markdown or json")
	f.StringVar(&c.out, "out", "", "Write a markdown export into this directory instead of printing")
	f.IntVar(&c.width, "width", 100, "Wrap width for text output")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	switch c.format {
	case "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown format %q (want text, markdown or json)", c.format)
	}

	svc, err := c.ctx.OpenService()
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	if c.out != "" {
		path, err := svc.ExportFeed(cmd.Context(), args[0], c.out)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %s\n", path)
		return nil
	}

	snap, err := svc.OpenSpace(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if snap.Err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), view.Error("warning: "+redaction.Redact(snap.Err.Error())))
	}

	switch c.format {
	case "markdown":
		doc, err := markdown.RenderFeed(snap.Details, snap.Feed, snap.IsSubscribed, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprint(out, doc)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"space":      snap.Details,
			"subscribed": snap.IsSubscribed,
			"fallback":   snap.Fallback,
			"feed":       snap.Feed,
		})
	default:
		r := view.NewRenderer(c.width)
		r.MaxDepth = svc.Config.UI.MaxCommentDepth
		if u := svc.Session.Snapshot().User; u != nil {
			r.UserID = u.ID
		}
		fmt.Fprintln(out, r.Space(snap, view.TabFeed, nil))
	}
	return nil
}
