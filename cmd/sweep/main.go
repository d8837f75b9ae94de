// Command sweep runs a single scheduler pass against the configured
// database and exits. Deployments without a long-running server can drive
// date-triggered transitions from cron with this binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/engine"
	"github.com/jinkaiteo/edms-sub019/internal/authz"
	"github.com/jinkaiteo/edms-sub019/internal/config"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
	"github.com/jinkaiteo/edms-sub019/internal/infrastructure/persistence/repository"
	"github.com/jinkaiteo/edms-sub019/internal/infrastructure/persistence/sqlite"
	"github.com/jinkaiteo/edms-sub019/internal/worker"
	"github.com/jinkaiteo/edms-sub019/pkg/database"
	"github.com/jinkaiteo/edms-sub019/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)
	instanceRepo := repository.NewInstanceRepository(db.DB, logger)
	ledgerRepo := repository.NewLedgerRepository(db.DB, logger)

	gate := authz.NewGate(authz.NewStaticProvider(cfg.Authz.Grants), cfg.Authz.ProviderTimeout, logger)

	lifecycleEngine := engine.New(
		lifecycle.NewRegistry(),
		gate,
		instanceRepo,
		ledgerRepo,
		txManager,
		logger,
	)

	sweeper := worker.NewSweeper(lifecycleEngine, instanceRepo, nil, worker.SweeperConfig{
		BatchSize: cfg.Scheduler.BatchSize,
	}, logger)

	report := sweeper.RunSweep(context.Background(), time.Now())

	logger.Info("Sweep complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("activated", report.Activated),
		zap.Int("obsoleted", report.Obsoleted),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)))

	if err := report.Err(); err != nil {
		logger.Error("Sweep finished with errors", zap.Error(err))
		os.Exit(1)
	}
}
