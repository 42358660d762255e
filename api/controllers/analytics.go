package controllers

import (
	"net/http"

	"github.com/toolstash/toolstash-backend/api/responses"
	"github.com/toolstash/toolstash-backend/api/validators"
	"github.com/toolstash/toolstash-backend/internal/ingest"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

// AnalyticsCollect records a page view. The visitor ID is client-generated
// (cookie-backed on the client's side); a request without one is rejected.
func AnalyticsCollect(svc ingest.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input ingest.CollectInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CollectPageView(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}

// AnalyticsDuration patches the dwell time of an earlier page view.
func AnalyticsDuration(svc ingest.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input ingest.DurationInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.RecordDuration(ctx, input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]any{"accepted": true})
	}
}

// AnalyticsEvents stores a tracker batch.
func AnalyticsEvents(svc ingest.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input ingest.EventBatchInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.RecordEventBatch(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}
