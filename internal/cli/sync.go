package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/winspan/xraysync/internal/docker"
	"github.com/winspan/xraysync/internal/geodata"
	"github.com/winspan/xraysync/pkg/config"
	"github.com/winspan/xraysync/pkg/logger"
)

// NewSyncCommand creates the one-shot sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize rule databases once and restart the container if they changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSync(ctx, cmd, rootOpts)
		},
	}
}

func runSync(ctx context.Context, cmd *cobra.Command, rootOpts *RootOptions) error {
	cfg, err := config.LoadConfig(rootOpts.ConfigPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, "sync")
	if err != nil {
		return err
	}
	defer log.Close()

	rec, err := buildReconciler(cfg, log)
	if err != nil {
		return err
	}

	result, err := rec.Run(ctx, artifactSpecs(cfg))
	if err != nil {
		return &ExitError{Code: 3, Err: err}
	}

	printResult(cmd, result)
	if code := result.ExitCode(); code != 0 {
		return &ExitError{Code: code, Err: fmt.Errorf("sync finished with failures")}
	}
	return nil
}

// buildReconciler wires the deployment target selected in the config.
func buildReconciler(cfg *config.Config, log *logger.Logger) (*geodata.Reconciler, error) {
	cli := docker.NewClient()
	fetcher := geodata.NewFetcher(cfg.GetSyncTimeout())
	restarter := geodata.NewContainerRestarter(cli, cfg.Container.Name)

	var target geodata.Target
	switch cfg.Sync.Mode {
	case "container":
		target = geodata.NewContainerTarget(cli, cfg.Container.Name, cfg.Container.DataDir)
	case "local":
		target = geodata.NewLocalTarget(cfg.Sync.Dir)
	default:
		return nil, fmt.Errorf("unknown sync mode %q", cfg.Sync.Mode)
	}
	return geodata.NewReconciler(target, fetcher, restarter, log), nil
}

func artifactSpecs(cfg *config.Config) []geodata.ArtifactSpec {
	specs := make([]geodata.ArtifactSpec, 0, len(cfg.Sync.Artifacts))
	for _, a := range cfg.Sync.Artifacts {
		specs = append(specs, geodata.ArtifactSpec{Name: a.Name, URL: a.URL, Path: a.Path})
	}
	return specs
}

func printResult(cmd *cobra.Command, result *geodata.SyncResult) {
	names := make([]string, 0, len(result.Artifacts))
	for name := range result.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := cmd.OutOrStdout()
	for _, name := range names {
		ar := result.Artifacts[name]
		if ar.Err != nil {
			fmt.Fprintf(out, "%-14s %s (%v)\n", name, ar.Outcome, ar.Err)
		} else {
			fmt.Fprintf(out, "%-14s %s\n", name, ar.Outcome)
		}
	}
	fmt.Fprintf(out, "restart: %s\n", result.Restart)
}
