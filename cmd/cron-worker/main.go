package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/toolstash/toolstash-backend/internal/aggregate"
	"github.com/toolstash/toolstash-backend/internal/catalog"
	"github.com/toolstash/toolstash-backend/internal/cron"
	"github.com/toolstash/toolstash-backend/internal/digest"
	"github.com/toolstash/toolstash-backend/internal/ingest"
	"github.com/toolstash/toolstash-backend/pkg/config"
	"github.com/toolstash/toolstash-backend/pkg/db"
	"github.com/toolstash/toolstash-backend/pkg/logger"
	"github.com/toolstash/toolstash-backend/pkg/metrics"
	"github.com/toolstash/toolstash-backend/pkg/migrate"
	"github.com/toolstash/toolstash-backend/pkg/pubsub"
	"github.com/toolstash/toolstash-backend/pkg/redis"
)

const lockKeyFormat = "ts:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	catalogRepo := catalog.NewRepository(dbClient.DB())
	ingestRepo := ingest.NewRepository(dbClient.DB())
	aggregateRepo := aggregate.NewRepository(dbClient.DB())

	aggregateService, err := aggregate.NewService(aggregateRepo, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create aggregate service", err)
		os.Exit(1)
	}

	digestService, err := digest.NewService(catalogRepo, aggregateRepo, pubsubClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create digest service", err)
		os.Exit(1)
	}

	aggregateJob, err := cron.NewAggregateJob(cron.AggregateJobParams{
		Logger:  logg,
		Service: aggregateService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create aggregate job", err)
		os.Exit(1)
	}

	digestJob, err := cron.NewDigestJob(cron.DigestJobParams{
		Logger:  logg,
		Service: digestService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create digest job", err)
		os.Exit(1)
	}

	pageViewCleanup, err := cron.NewPageViewCleanupJob(cron.PageViewCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: ingestRepo,
		Retention:  cfg.Retention.PageViewDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create page view cleanup job", err)
		os.Exit(1)
	}

	eventCleanup, err := cron.NewEventCleanupJob(cron.EventCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: ingestRepo,
		Retention:  cfg.Retention.EventDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create event cleanup job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(aggregateJob, digestJob, pageViewCleanup, eventCleanup)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
