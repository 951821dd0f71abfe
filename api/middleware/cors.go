package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/rentease/rentease-backend/api/responses"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"http://localhost:5173", // vite dev server
	"https://rentease.app",
	"https://www.rentease.app",
}

// CORS returns middleware that applies the API's allowed origin policy. Extra origins
// come from configuration and are appended to the defaults.
func CORS(extraOrigins ...string) func(http.Handler) http.Handler {
	origins := append([]string{}, defaultCORSOrigins...)
	for _, origin := range extraOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-RE-Token", IdempotencyKeyHeader, "X-Requested-With", responses.RequestIDHeader},
		ExposedHeaders:   []string{"X-RE-Token", responses.RequestIDHeader, IdempotentReplayedHeader, "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
