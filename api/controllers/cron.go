package controllers

import (
	"net/http"
	"time"

	"github.com/toolstash/toolstash-backend/api/responses"
	"github.com/toolstash/toolstash-backend/internal/aggregate"
	cronjobs "github.com/toolstash/toolstash-backend/internal/cron"
	"github.com/toolstash/toolstash-backend/internal/digest"
	pkgerrors "github.com/toolstash/toolstash-backend/pkg/errors"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

// TriggerAggregate runs the daily aggregation on demand. The optional ?date=
// parameter (YYYY-MM-DD) re-aggregates a historical day; without it the
// previous UTC day is used.
func TriggerAggregate(svc aggregate.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		day := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD"))
				return
			}
			day = parsed
		}

		summary, err := svc.Run(ctx, day)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregation run failed"))
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// TriggerDigest runs the weekly digest on demand for today's weekday.
func TriggerDigest(svc digest.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		summary, err := svc.Run(ctx, time.Now())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "digest run failed"))
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// TriggerJob runs a registered cron job on demand, for the jobs that report
// through logs rather than a summary payload.
func TriggerJob(job cronjobs.Job, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := job.Run(ctx); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "job run failed"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"job": job.Name(), "status": "completed"})
	}
}
