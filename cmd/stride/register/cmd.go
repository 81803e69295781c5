// Package registercmd implements the `stride register` command.
package registercmd

import (
	"fmt"

	"github.com/spf13/cobra"

	logincmd "github.com/go-ports/stride/cmd/stride/login"
	"github.com/go-ports/stride/cmd/stride/shared"
)

// Command implements `stride register`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	username string
	email    string
	password string
}

// New creates the register command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVarP(&c.username, "username", "u", "", "Username (required)")
	f.StringVarP(&c.email, "email", "e", "", "Email (required)")
	f.StringVarP(&c.password, "password", "p", "", "Password (read from stdin when omitted)")
	_ = c.cmd.MarkFlagRequired("username")
	_ = c.cmd.MarkFlagRequired("email")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	password := c.password
	if password == "" {
		var err error
		if password, err = logincmd.ReadSecret(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	svc, err := c.ctx.OpenService()
	if err != nil {
		return err
	}
	defer svc.Close()

	user, err := svc.Register(cmd.Context(), c.username, c.email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", user.Username)
	return nil
}
