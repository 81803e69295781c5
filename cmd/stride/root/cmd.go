// Package rootcmd wires the root cobra.Command for the stride CLI binary.
package rootcmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	apicmd "github.com/go-ports/stride/cmd/stride/api"
	browsecmd "github.com/go-ports/stride/cmd/stride/browse"
	commentcmd "github.com/go-ports/stride/cmd/stride/comment"
	configcmd "github.com/go-ports/stride/cmd/stride/config"
	feedcmd "github.com/go-ports/stride/cmd/stride/feed"
	logincmd "github.com/go-ports/stride/cmd/stride/login"
	logoutcmd "github.com/go-ports/stride/cmd/stride/logout"
	mcpcmd "github.com/go-ports/stride/cmd/stride/mcp"
	reactcmd "github.com/go-ports/stride/cmd/stride/react"
	registercmd "github.com/go-ports/stride/cmd/stride/register"
	setupcmd "github.com/go-ports/stride/cmd/stride/setup"
	"github.com/go-ports/stride/cmd/stride/shared"
	spacescmd "github.com/go-ports/stride/cmd/stride/spaces"
	subscribecmd "github.com/go-ports/stride/cmd/stride/subscribe"
	whoamicmd "github.com/go-ports/stride/cmd/stride/whoami"
	"github.com/go-ports/stride/internal/buildinfo"
)

// New creates and returns the root cobra.Command for the stride CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "stride",
		Short:         "Stride: browse learning hub spaces from the terminal",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if ctx.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	f := root.PersistentFlags()
	f.StringVar(&ctx.Home, "home", "",
		"Override stride home directory (default: $STRIDE_HOME env → persisted config → ~/.stride)")
	f.StringVar(&ctx.APIURL, "api-url", "", "Override the hub API base URL")
	f.BoolVarP(&ctx.Verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		logincmd.New(ctx).Cmd(),
		registercmd.New(ctx).Cmd(),
		logoutcmd.New(ctx).Cmd(),
		whoamicmd.New(ctx).Cmd(),
		spacescmd.New(ctx).Cmd(),
		feedcmd.New(ctx).Cmd(),
		commentcmd.New(ctx).Cmd(),
		reactcmd.New(ctx).Cmd(),
		subscribecmd.New(ctx).Cmd(),
		browsecmd.New(ctx).Cmd(),
		apicmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
		setupcmd.New(ctx).Cmd(),
	)

	return root
}
