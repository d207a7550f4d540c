package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// AllowAllOrigins accepts cross-origin requests from any origin
func AllowAllOrigins() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		MaxAge:         300,
	})
}
