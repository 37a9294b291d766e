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
	// HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	ProposalsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proposals_accepted_total",
			Help: "Total number of proposals accepted",
		},
	)

	CheckoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout session attempts by milestone and outcome",
		},
		[]string{"milestone", "outcome"}, // outcome: created, reused, in_progress, failed
	)

	PaymentSyncUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_sync_updates_total",
			Help: "Payment intent status changes applied by reconciliation",
		},
		[]string{"status"},
	)
)

// RecordHTTPRequestDuration records request latency
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementProposalsAccepted counts a successful acceptance
func IncrementProposalsAccepted() {
	ProposalsAccepted.Inc()
}

// IncrementCheckout counts a checkout attempt
func IncrementCheckout(milestone, outcome string) {
	CheckoutSessions.WithLabelValues(milestone, outcome).Inc()
}

// IncrementPaymentSync counts a reconciled status change
func IncrementPaymentSync(status string) {
	PaymentSyncUpdates.WithLabelValues(status).Inc()
}

// GinMiddleware observes request latency keyed by route template
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

// Handler serves the prometheus scrape endpoint
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
