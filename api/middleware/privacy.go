package middleware

import (
	"net/http"

	"github.com/toolstash/toolstash-backend/api/responses"
	"github.com/toolstash/toolstash-backend/pkg/logger"
	"github.com/toolstash/toolstash-backend/pkg/metrics"
	"github.com/toolstash/toolstash-backend/pkg/tracker"
)

// PrivacyGate short-circuits collection requests that carry a DNT or Sec-GPC
// opt-out. The response is indistinguishable from a successful no-op so
// clients need no special handling, and nothing from the request is stored.
func PrivacyGate(logg *logger.Logger, m *metrics.IngestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tracker.SignalsFromHeader(r.Header).OptedOut() {
				m.IncBatchSuppressed()
				if logg != nil {
					logg.Debug(r.Context(), "collection suppressed by privacy signal")
				}
				responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]any{"count": 0})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
