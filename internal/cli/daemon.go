package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/winspan/xraysync/internal/geodata"
	"github.com/winspan/xraysync/internal/health"
	"github.com/winspan/xraysync/internal/history"
	"github.com/winspan/xraysync/internal/web"
	"github.com/winspan/xraysync/pkg/config"
	"github.com/winspan/xraysync/pkg/logger"
)

// NewDaemonCommand creates the periodic-sync daemon command.
func NewDaemonCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run periodic sync with an admin API and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, rootOpts)
		},
	}
}

func runDaemon(ctx context.Context, rootOpts *RootOptions) error {
	cfg, err := config.LoadConfig(rootOpts.ConfigPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, "daemon")
	if err != nil {
		return err
	}
	defer log.Close()

	rec, err := buildReconciler(cfg, log)
	if err != nil {
		return err
	}
	mgr := geodata.NewSyncManager(rec, artifactSpecs(cfg), cfg.GetSyncInterval(), log)

	store, err := history.NewStore(cfg.Database.SQLiteFile, cfg.Database.KeepRuns)
	if err != nil {
		return err
	}
	defer store.Close()
	mgr.SetRecorder(store)

	var checker func(ctx context.Context) error
	if cfg.Health.Enabled {
		probe := health.NewProbe(cfg.Health.DNSAddr, cfg.Health.ProbeDomain, cfg.GetHealthTimeout())
		mgr.SetProbe(probe)
		checker = probe.Check
	}

	r := chi.NewRouter()
	web.BindRoutes(r, mgr, store, checker, cfg)
	srv := &http.Server{Addr: cfg.Admin.Listen, Handler: r}

	go func() {
		log.Info("admin API listening on %s", cfg.Admin.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin server: %v", err)
		}
	}()

	log.Info("sync every %s, container %s, mode %s", cfg.Sync.Interval, cfg.Container.Name, cfg.Sync.Mode)
	mgr.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("daemon stopped")
	return nil
}

func newLogger(cfg *config.Config, prefix string) (*logger.Logger, error) {
	level := logger.ParseLevel(cfg.Logging.Level)
	if cfg.IsDebug() {
		level = logger.DEBUG
	}
	return logger.NewLogger(&logger.Config{
		Level:   level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		MaxSize: cfg.Logging.MaxSize,
		Prefix:  prefix,
	})
}
