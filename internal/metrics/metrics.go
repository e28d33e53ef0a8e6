// Package metrics holds the prometheus collectors Keystone exports on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keystone_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keystone_alerts_generated_total",
			Help: "Total number of scheduling alerts inserted",
		},
		[]string{"type", "severity"},
	)

	MilestonesAutoCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keystone_milestones_auto_completed_total",
			Help: "Total number of milestones marked achieved by the auto-completion scan",
		},
	)

	EVMCalculations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keystone_evm_calculations_total",
			Help: "Total number of earned value snapshots recorded",
		},
	)
)

// RecordHTTPRequestDuration observes one served request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementAlertGenerated counts one inserted alert.
func IncrementAlertGenerated(alertType, severity string) {
	AlertsGenerated.WithLabelValues(alertType, severity).Inc()
}

// AddMilestonesAutoCompleted counts milestones written by a scan.
func AddMilestonesAutoCompleted(n int) {
	MilestonesAutoCompleted.Add(float64(n))
}

// IncrementEVMCalculation counts one appended EVM snapshot.
func IncrementEVMCalculation() {
	EVMCalculations.Inc()
}

// GinMiddleware records request latency labelled by route template, so
// /api/tasks/:id/dates is one series regardless of id.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
