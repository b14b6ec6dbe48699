package middleware

import (
	"net/http"
	"strings"
	"time"

	"depo-backend/internal/logger"
	"depo-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags every request with an ID and logs one line per response.
// Health probes and the metrics scrape are not logged.
func RequestLogger(next http.Handler) http.Handler {
	log := logger.WithComponent("HTTP")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		entry := log.WithFields(logrus.Fields{
			"request_id":  id,
			"method":      r.Method,
			"path":        sanitizePath(r.URL.Path),
			"status":      wrapped.statusCode,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes":       wrapped.bytesWritten,
			"ip":          utils.ClientIP(r),
		})
		if actor, ok := ActorFromContext(r.Context()); ok {
			entry = entry.WithField("user", actor.Username)
		}

		switch {
		case wrapped.statusCode >= 500:
			entry.Error("request failed")
		case wrapped.statusCode >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	})
}

func shouldSkipLogging(path string) bool {
	for _, skip := range []string{"/health", "/metrics", "/favicon.ico"} {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}

func sanitizePath(path string) string {
	if len(path) > 500 {
		path = path[:500]
	}
	return path
}
