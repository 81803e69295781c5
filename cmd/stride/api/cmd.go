// Package apicmd implements the `stride api` command.
package apicmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yalp/jsonpath"

	"github.com/go-ports/stride/cmd/stride/shared"
)

// Command implements `stride api`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	query string
}

// New creates the api command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "api <path>",
		Short: "GET a raw API path with the stored session and print the JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	c.cmd.Flags().StringVarP(&c.query, "query", "q", "", "JSONPath filter applied to the response, e.g. $[*].name")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	var filter jsonpath.FilterFunc
	if c.query != "" {
		var err error
		if filter, err = jsonpath.Prepare(c.query); err != nil {
			return fmt.Errorf("invalid --query: %w", err)
		}
	}

	svc, err := c.ctx.OpenService()
	if err != nil {
		return err
	}
	defer svc.Close()

	data, err := svc.Raw(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if filter != nil {
		if data, err = filter(data); err != nil {
			return fmt.Errorf("query %s: %w", c.query, err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
