package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/corebank/ledger-service/internal/breaker"
	"github.com/corebank/ledger-service/internal/command"
	"github.com/corebank/ledger-service/internal/config"
	"github.com/corebank/ledger-service/internal/events"
	"github.com/corebank/ledger-service/internal/handler"
	"github.com/corebank/ledger-service/internal/lock"
	"github.com/corebank/ledger-service/internal/monitoring"
	"github.com/corebank/ledger-service/internal/projection"
	"github.com/corebank/ledger-service/internal/query"
	"github.com/corebank/ledger-service/internal/redis"
	"github.com/corebank/ledger-service/internal/repository"
	"github.com/corebank/ledger-service/internal/retry"
	"github.com/corebank/ledger-service/internal/worker"
)

const projectionGroup = "ledger-projector"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to open database", "error", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalw("failed to ping database", "error", err)
	}
	if err := repository.RunMigrations(context.Background(), db, cfg.MigrationsDir); err != nil {
		logger.Fatalw("failed to run migrations", "error", err)
	}

	redisClient, err := redis.NewClient(redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
		PoolSize:     cfg.RedisPoolSize,
	}, logger)
	if err != nil {
		logger.Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	metrics := monitoring.New()
	locks := lock.NewCoordinator(cfg.LockTimeout)

	breakerCfg := breaker.DefaultConfig()
	breakerCfg.OpenTimeout = cfg.BreakerOpenTimeout
	breakers := breaker.NewRegistry(breakerCfg, logger)

	pool := worker.NewPool(cfg.PublishWorkers, cfg.PublishQueueSize, logger)
	publisher := events.NewAsyncPublisher(events.NewStreamPublisher(redisClient.Client), pool, logger, metrics)

	writeRepo := repository.NewAccountRepository(db, logger)
	readRepo := repository.NewReadViewRepository(db, redisClient.Client, logger)

	commandSvc := command.NewAccountCommandService(writeRepo, locks, breakers, publisher, logger, metrics)
	querySvc := query.NewAccountQueryService(readRepo, breakers, logger, metrics)

	policy := retry.Policy{MaxAttempts: cfg.ProjectionMaxAttempts, Delay: cfg.ProjectionRetryDelay}
	projector := projection.NewProjector(readRepo, policy, logger, metrics)

	router := handler.NewRouter(
		handler.NewWriteHandler(commandSvc),
		handler.NewReadHandler(querySvc),
		metrics, logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	for _, stream := range []string{events.AccountEventsStream, events.TransactionEventsStream} {
		sub := events.NewSubscriber(redisClient.Client, events.SubscriberConfig{
			Group:    projectionGroup,
			Consumer: projectionGroup + "-1",
			Stream:   stream,
			Handler:  projector.HandleEvent,
		}, logger)
		g.Go(func() error {
			if err := sub.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	g.Go(func() error {
		logger.Infow("ledger service starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Infow("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("http server shutdown failed", "error", err)
		}
		if err := pool.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("publisher pool shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatalw("service stopped", "error", err)
	}
	logger.Infow("service stopped")
}
