package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	authzDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_denials_total",
			Help: "Total number of authorization denials",
		},
		[]string{"resource"},
	)

	sessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"action", "result"},
	)

	questTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quest_transitions_total",
			Help: "Total number of quest state transitions",
		},
		[]string{"action", "result"},
	)

	worldJoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "world_joins_total",
			Help: "Total number of world join attempts",
		},
		[]string{"result"},
	)
)

// MetricsMiddleware collects Prometheus metrics for HTTP requests.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		httpRequestsInFlight.Inc()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

// RecordAuthzDenial counts a denied view/edit on a resource type.
func RecordAuthzDenial(resource string) {
	authzDenialsTotal.WithLabelValues(resource).Inc()
}

// RecordSessionTransition counts a session lifecycle action.
func RecordSessionTransition(action string, ok bool) {
	sessionTransitionsTotal.WithLabelValues(action, resultLabel(ok)).Inc()
}

// RecordQuestTransition counts a quest lifecycle action.
func RecordQuestTransition(action string, ok bool) {
	questTransitionsTotal.WithLabelValues(action, resultLabel(ok)).Inc()
}

// RecordWorldJoin counts a join attempt by outcome.
func RecordWorldJoin(result string) {
	worldJoinsTotal.WithLabelValues(result).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
