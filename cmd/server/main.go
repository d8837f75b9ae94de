package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/dispatcher"
	"github.com/jinkaiteo/edms-sub019/internal/application/engine"
	"github.com/jinkaiteo/edms-sub019/internal/authz"
	"github.com/jinkaiteo/edms-sub019/internal/config"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
	"github.com/jinkaiteo/edms-sub019/internal/infrastructure/persistence/repository"
	"github.com/jinkaiteo/edms-sub019/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/jinkaiteo/edms-sub019/internal/interfaces/http"
	"github.com/jinkaiteo/edms-sub019/internal/notification"
	"github.com/jinkaiteo/edms-sub019/internal/worker"
	"github.com/jinkaiteo/edms-sub019/pkg/database"
	"github.com/jinkaiteo/edms-sub019/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Optional .env for local development
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

	logger.Info("Starting document lifecycle service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

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

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)
	instanceRepo := repository.NewInstanceRepository(db.DB, logger)
	ledgerRepo := repository.NewLedgerRepository(db.DB, logger)

	eventDispatcher := dispatcher.New(dispatcher.WithLogger(dispatcherLogger{logger.Sugar()}))
	defer eventDispatcher.Close()

	sender := notification.NewLogSender(logger)
	notification.NewForwarder(sender, logger).Register(eventDispatcher)

	provider := authz.NewStaticProvider(cfg.Authz.Grants)
	gate := authz.NewGate(provider, cfg.Authz.ProviderTimeout, logger)

	lifecycleEngine := engine.New(
		lifecycle.NewRegistry(),
		gate,
		instanceRepo,
		ledgerRepo,
		txManager,
		logger,
		engine.WithDispatcher(eventDispatcher),
	)

	sweeper := worker.NewSweeper(lifecycleEngine, instanceRepo, eventDispatcher, worker.SweeperConfig{
		Interval:  cfg.Scheduler.Interval,
		BatchSize: cfg.Scheduler.BatchSize,
		Overdue:   overdueTimeouts(cfg.Scheduler.OverdueAfter, logger),
	}, logger)

	workers := worker.NewManager(logger)
	workers.Register(sweeper)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, lifecycleEngine, sweeper, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()
	workers.StopAll()

	if err := server.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// dispatcherLogger adapts zap.Logger to the dispatcher.Logger interface
type dispatcherLogger struct {
	sugar *zap.SugaredLogger
}

func (l dispatcherLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l dispatcherLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// overdueTimeouts converts configured state names to lifecycle states,
// dropping names that do not match a known state
func overdueTimeouts(raw map[string]time.Duration, logger *zap.Logger) map[lifecycle.State]time.Duration {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[lifecycle.State]time.Duration, len(raw))
	for name, timeout := range raw {
		state := lifecycle.State(name)
		if !state.IsValid() {
			logger.Warn("Ignoring overdue timeout for unknown state", zap.String("state", name))
			continue
		}
		out[state] = timeout
	}
	return out
}
