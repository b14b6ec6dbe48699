package middleware

import (
	"net/http"
	"slices"

	"depo-backend/internal/config"
	"depo-backend/internal/logger"

	"github.com/rs/cors"
)

// NewCORS builds the CORS wrapper for the whole router. Credentials are only
// allowed with an explicit origin list; browsers refuse them with "*".
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.Server.CorsAllowedOrigins
	wildcard := len(origins) == 0 || slices.Contains(origins, "*")

	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After", requestIDHeader},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	}
	if cfg.Log.Level == "debug" {
		opts.Logger = logger.WithComponent("CORS")
	}
	return cors.New(opts).Handler
}
