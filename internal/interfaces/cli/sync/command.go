// Package sync provides the daemon entrypoint: it wires the roster
// client, the target store and the reconciliation engine, then runs
// passes on the configured interval.
package sync

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appsync "targetsync/internal/application/sync"
	"targetsync/internal/infrastructure/config"
	"targetsync/internal/infrastructure/database"
	"targetsync/internal/infrastructure/migration"
	"targetsync/internal/infrastructure/oncall"
	"targetsync/internal/infrastructure/repository"
	"targetsync/internal/infrastructure/scrumteams"
	httpiface "targetsync/internal/interfaces/http"
	"targetsync/internal/shared/biztime"
	"targetsync/internal/shared/goroutine"
	"targetsync/internal/shared/logger"
	"targetsync/internal/shared/metrics"
)

var (
	env    string
	once   bool
	dryRun bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run the roster reconciliation daemon",
		Long:  `Continuously reconcile the notification target store and its generated escalation plans against the on-call roster service.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single pass and exit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log intended writes without applying them")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dryRun {
		cfg.Sync.DryRun = true
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := biztime.Init(""); err != nil {
		return fmt.Errorf("failed to initialize timezone: %w", err)
	}

	log := logger.NewLogger()
	log.Infow("starting target sync daemon",
		"environment", env,
		"interval", cfg.Sync.Interval(),
		"dry_run", cfg.Sync.DryRun,
	)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := migration.Up(database.Get()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	targets := repository.NewTargetRepository(database.Get())
	plans := repository.NewPlanRepository(database.Get())
	roster := oncall.NewClient(&cfg.Oncall, cfg.Sync.DefaultRegion, log)

	scrumTeamsFile := cfg.Sync.ScrumTeamsFile
	service := appsync.NewService(
		targets,
		plans,
		roster,
		&cfg.Sync,
		func() (map[string]string, error) { return scrumteams.Load(scrumTeamsFile) },
		log,
	)

	metrics.Register()

	if once {
		_, err := service.RunPass(cmd.Context())
		return err
	}

	emitter := metrics.NewEmitter(cfg.Metrics.EmitInterval(), log)
	emitter.Start()
	defer emitter.Stop()

	statusServer := httpiface.NewStatusServer(&cfg.Server, log)
	goroutine.SafeGo(log, "status-server", func() {
		if err := statusServer.Start(); err != nil {
			log.Errorw("status server failed", "error", err)
		}
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			log.Errorw("status server shutdown failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	runPass := func() {
		summary, err := service.RunPass(ctx)
		if err != nil {
			log.Errorw("pass failed", "error", err)
		}
		if summary != nil {
			statusServer.RecordSummary(summary)
		}
	}

	ticker := time.NewTicker(cfg.Sync.Interval())
	defer ticker.Stop()

	// First pass fires immediately, not one interval from now.
	runPass()

	for {
		select {
		case <-ticker.C:
			runPass()
		case sig := <-sigChan:
			log.Infow("received signal, shutting down", "signal", sig)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
