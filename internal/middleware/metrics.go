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
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 7), // 100B to 100MB
		},
		[]string{"method", "path"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of currently active HTTP requests",
		},
	)

	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	revisionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisions_created_total",
			Help: "Total number of revisions created",
		},
		[]string{"collection", "update_type"},
	)

	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Side effect handlers that failed after retry",
		},
		[]string{"effect"},
	)
)

// Metrics returns a gin middleware that collects Prometheus metrics
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint itself
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		activeRequests.Inc()

		c.Next()

		activeRequests.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		// Normalize path to avoid high-cardinality (replace IDs with :id)
		path := normalizePath(c.FullPath())
		if path == "" {
			path = c.Request.URL.Path
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
		httpResponseSize.WithLabelValues(c.Request.Method, path).Observe(float64(c.Writer.Size()))
	}
}

// SetDBConnectionsActive updates the DB connection gauge (call from main)
func SetDBConnectionsActive(count float64) {
	dbConnectionsActive.Set(count)
}

// ObserveRevisionCreated counts a created revision by collection and update type
func ObserveRevisionCreated(collection, updateType string) {
	revisionsCreatedTotal.WithLabelValues(collection, updateType).Inc()
}

// ObserveSideEffectFailure counts a side effect that failed after its retry
func ObserveSideEffectFailure(effect string) {
	sideEffectFailures.WithLabelValues(effect).Inc()
}

// normalizePath returns the route template (e.g. /api/v1/posts/:id) to avoid cardinality explosion
func normalizePath(path string) string {
	if path == "" {
		return "unknown"
	}
	return path
}
