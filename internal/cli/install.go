package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/winspan/xraysync/internal/deploy"
	"github.com/winspan/xraysync/internal/docker"
	"github.com/winspan/xraysync/pkg/config"
)

// NewInstallCommand creates the install command.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := deploy.InstallOptions{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the xray client deployment on this host",
		Long: `Detects network settings, renders the client config, enables IPv4
forwarding, installs docker, downloads the rule databases and brings the
compose project up. Must run as root unless --dry-run is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, "install")
			if err != nil {
				return err
			}
			defer log.Close()

			inst := deploy.NewInstaller(opts, docker.NewClient(), log)
			return inst.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "client directory (.env, template, compose file)")
	cmd.Flags().StringArrayVar(&opts.Servers, "server", nil, "server spec host:uuid (repeatable)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show actions without applying changes")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip confirmation prompt")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "force re-detect and overwrite .env")

	return cmd
}

// NewUninstallCommand creates the uninstall command.
func NewUninstallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := deploy.UninstallOptions{}

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the xray containers, built image and rendered config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, "uninstall")
			if err != nil {
				return err
			}
			defer log.Close()

			u := deploy.NewUninstaller(opts, docker.NewClient(), log)
			return u.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "client directory")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show what would be done")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip confirmation")
	cmd.Flags().BoolVar(&opts.RemoveEnv, "remove-env", false, "also remove the .env file")

	return cmd
}
