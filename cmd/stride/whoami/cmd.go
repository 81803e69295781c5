// Package whoamicmd implements the `stride whoami` command.
package whoamicmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
	"github.com/go-ports/stride/internal/redaction"
)

// Command implements `stride whoami`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the whoami command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
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

	user, err := svc.Whoami(cmd.Context())
	if err != nil {
		return fmt.Errorf("%w (run `stride login`)", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User:    %s\n", user.Username)
	if user.Email != "" {
		fmt.Fprintf(out, "Email:   %s\n", user.Email)
	}
	fmt.Fprintf(out, "ID:      %s\n", user.ID)
	if user.IsAdmin {
		fmt.Fprintln(out, "Role:    admin")
	}
	fmt.Fprintf(out, "Token:   %s\n", redaction.MaskToken(svc.Client.Token()))
	if exp, ok, err := svc.TokenExpiry(); err == nil && ok {
		fmt.Fprintf(out, "Expires: %s\n", exp.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(out, "API:     %s\n", svc.Client.BaseURL())
	return nil
}
