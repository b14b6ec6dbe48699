package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depo_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depo_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	StoreFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depo_store_fallback_total",
		Help: "Operations served by the local store after a remote failure.",
	}, []string{"op"})

	CodesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depo_codes_generated_total",
		Help: "Entity codes handed out, by kind.",
	}, []string{"kind"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depo_active_sessions",
		Help: "Sessions with a heartbeat inside the active window at the last sweep.",
	})

	SessionsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depo_sessions_reaped_total",
		Help: "Idle sessions removed by the sweeper.",
	})
)
