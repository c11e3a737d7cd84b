package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// ExitError carries a specific process exit code: 1 artifact failure,
// 2 restart failure with clean artifacts, 3 target unreachable.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// NewRootCommand creates the xraysync root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "xraysync",
		Short:         "Deploy an xray proxy and keep its rule databases in sync",
		Long:          "xraysync installs an xray client deployment and keeps geoip.dat/geosite.dat\nsynchronized from their release URLs, restarting the container only when\nthe data actually changed.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewDaemonCommand(opts))
	cmd.AddCommand(NewInstallCommand(opts))
	cmd.AddCommand(NewUninstallCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Version is stamped at build time.
var Version = "dev"

// NewVersionCommand prints the build version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
