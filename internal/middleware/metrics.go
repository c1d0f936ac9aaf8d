package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis failures by operation so cache and rate limit
	// degradation is visible even when the code fails open.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// ActiveWebSockets tracks currently connected websocket clients.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ripple_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// NotificationsEmitted counts stored notifications by type.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_notifications_emitted_total",
		Help: "Total number of notifications stored, by type",
	}, []string{"type"})
)

// InitMetrics sets up the Prometheus HTTP middleware and the /metrics endpoint.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-duration middleware backed by prom.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
