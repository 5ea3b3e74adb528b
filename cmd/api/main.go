package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/app"
	"github.com/helpdesk-io/helpdesk/internal/config"
	"github.com/helpdesk-io/helpdesk/internal/notify"
	"github.com/helpdesk-io/helpdesk/internal/observability"
	"github.com/helpdesk-io/helpdesk/internal/persistence"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/repository/memory"
	"github.com/helpdesk-io/helpdesk/internal/storage"
	"github.com/helpdesk-io/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(cfg, pg, redis, logger)

	store, err := storage.NewLocalStore(cfg.Storage.Dir, "/files")
	if err != nil {
		logger.Fatal("failed to prepare attachment storage", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	container, err := app.Build(*cfg, app.Infra{
		Repos:    repos,
		Store:    store,
		Logger:   logger,
		Metrics:  metrics,
		Postgres: pg,
		Redis:    redis,
	}, func(settings notify.SettingsSource) (notify.Mailer, error) {
		mailer, err := notify.NewSMTPMailer(cfg.Notification, settings, logger)
		if err != nil {
			return nil, err
		}
		return mailer, nil
	})
	if err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}

	sweeperDone := worker.StartSLASweeper(ctx, container.SLA, cfg.SLA.SweepInterval(), logger)

	go func() {
		if err := container.App.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-sweeperDone
	_ = container.App.Shutdown()
}

// buildRepositories picks Postgres when configured and the in-memory store otherwise.
// Redis, when reachable, caches the settings document and holds password-reset tokens.
func buildRepositories(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) repository.Set {
	var repos repository.Set
	if pg.Enabled() {
		repos = repository.NewPostgresSet(pg.PoolHandle(), memory.NewResetTokens())
	} else {
		repos = memory.NewStore().Repositories()
	}
	if redis.Client != nil {
		repos.ResetTokens = repository.NewRedisResetTokenStore(redis.Client)
		repos.Settings = repository.NewCachedSettingsRepository(repos.Settings, redis.Client, cfg.Redis.SettingsCacheTTL(), logger)
	}
	return repos
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
