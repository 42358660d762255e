package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toolstash/toolstash-backend/api/routes"
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

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	ingestMetrics := metrics.NewIngestMetrics(prometheus.DefaultRegisterer)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	ingestRepo := ingest.NewRepository(dbClient.DB())
	aggregateRepo := aggregate.NewRepository(dbClient.DB())

	ingestService, err := ingest.NewService(ingestRepo, catalogRepo, cfg.Ingest, ingestMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create ingest service", err)
		os.Exit(1)
	}

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

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:             cfg,
			Logger:             logg,
			DB:                 dbClient,
			Redis:              redisClient,
			IngestMetrics:      ingestMetrics,
			MetricsHandler:     promhttp.Handler(),
			IngestService:      ingestService,
			AggregateService:   aggregateService,
			DigestService:      digestService,
			PageViewCleanupJob: pageViewCleanup,
			EventCleanupJob:    eventCleanup,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
