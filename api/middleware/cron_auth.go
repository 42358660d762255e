package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/toolstash/toolstash-backend/api/responses"
	pkgerrors "github.com/toolstash/toolstash-backend/pkg/errors"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

// CronAuth guards the internal job trigger endpoints with a shared bearer
// secret. An empty configured secret fails closed.
func CronAuth(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if secret == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cron trigger secret not configured"))
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "path", r.URL.Path), "cron.trigger.unauthorized")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid cron trigger credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
