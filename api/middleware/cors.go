package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",       // local dev
	"https://toolstash.dev",       // production frontend
	"https://www.toolstash.dev",   // production alias
	"https://staging.toolstash.dev",
}

// CORS returns middleware that applies the API's allowed origin policy. The
// collection endpoints are called cross-origin from catalog pages, so
// credentials stay enabled for the identity cookies.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "DNT", "Sec-GPC", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
