// Package logincmd implements the `stride login` command.
package logincmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/stride/cmd/stride/shared"
)

// Command implements `stride login`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	username string
	password string
}

// New creates the login command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVarP(&c.username, "username", "u", "", "Username or email (required)")
	f.StringVarP(&c.password, "password", "p", "", "Password (read from stdin when omitted)")
	_ = c.cmd.MarkFlagRequired("username")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	password := c.password
	if password == "" {
		var err error
		if password, err = ReadSecret(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	svc, err := c.ctx.OpenService()
	if err != nil {
		return err
	}
	defer svc.Close()

	user, err := svc.Login(cmd.Context(), c.username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Username)
	return nil
}

// ReadSecret reads one line from r, for passwords piped on stdin.
func ReadSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}
