package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toolstash/toolstash-backend/api/controllers"
	"github.com/toolstash/toolstash-backend/api/middleware"
	"github.com/toolstash/toolstash-backend/internal/aggregate"
	cronjobs "github.com/toolstash/toolstash-backend/internal/cron"
	"github.com/toolstash/toolstash-backend/internal/digest"
	"github.com/toolstash/toolstash-backend/internal/ingest"
	"github.com/toolstash/toolstash-backend/pkg/config"
	"github.com/toolstash/toolstash-backend/pkg/logger"
	"github.com/toolstash/toolstash-backend/pkg/metrics"
	"github.com/toolstash/toolstash-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams carry everything the HTTP surface needs. Optional fields
// (Redis, MetricsHandler, cleanup jobs) may be nil and their routes or
// middleware degrade gracefully.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    pinger
	Redis *redis.Client

	IngestMetrics  *metrics.IngestMetrics
	MetricsHandler http.Handler

	IngestService    ingest.Service
	AggregateService aggregate.Service
	DigestService    digest.Service

	PageViewCleanupJob cronjobs.Job
	EventCleanupJob    cronjobs.Job
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, redisPinger(params.Redis)))
	})

	if params.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", params.MetricsHandler)
	}

	collectPolicy := middleware.NewRateLimitPolicy(
		"collect",
		cfg.Ingest.RateLimitWindow,
		cfg.Ingest.RateLimitPerIP,
	)

	r.Route("/analytics", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.PrivacyGate(logg, params.IngestMetrics))
		if params.Redis != nil {
			r.Use(middleware.RateLimit(collectPolicy, params.Redis, logg))
		}

		r.Post("/collect", controllers.AnalyticsCollect(params.IngestService, logg))
		r.Post("/duration", controllers.AnalyticsDuration(params.IngestService, logg))
		r.Post("/events", controllers.AnalyticsEvents(params.IngestService, logg))
	})

	r.Route("/internal/cron", func(r chi.Router) {
		r.Use(middleware.CronAuth(cfg.Cron.Secret, logg))

		r.Post("/aggregate", controllers.TriggerAggregate(params.AggregateService, logg))
		r.Post("/digest", controllers.TriggerDigest(params.DigestService, logg))
		if params.PageViewCleanupJob != nil {
			r.Post("/cleanup-pageviews", controllers.TriggerJob(params.PageViewCleanupJob, logg))
		}
		if params.EventCleanupJob != nil {
			r.Post("/cleanup-events", controllers.TriggerJob(params.EventCleanupJob, logg))
		}
	})

	return r
}

// redisPinger avoids handing HealthReady a typed-nil interface.
func redisPinger(client *redis.Client) pinger {
	if client == nil {
		return nil
	}
	return client
}
