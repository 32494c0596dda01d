package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the marketplace's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	ledgerMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "points_market",
			Subsystem: "ledger",
			Name:      "mutations_total",
			Help:      "Balance mutations applied, by journal kind.",
		},
		[]string{"kind"},
	)

	ledgerPoints = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "points_market",
			Subsystem: "ledger",
			Name:      "points_moved_total",
			Help:      "Absolute points moved, by journal kind and direction.",
		},
		[]string{"kind", "direction"},
	)

	reviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "points_market",
			Subsystem: "review",
			Name:      "decisions_total",
			Help:      "Admin review outcomes per workflow.",
		},
		[]string{"workflow", "outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "points_market",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "points_market",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	auditFindings = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "points_market",
			Subsystem: "audit",
			Name:      "findings",
			Help:      "Result of the last ledger audit, per check.",
		},
		[]string{"check"},
	)
)

func init() {
	Registry.MustRegister(ledgerMutations, ledgerPoints, reviews, httpRequests, httpDuration, auditFindings)
}

// RecordLedger counts one balance mutation of delta points.
func RecordLedger(kind string, delta int64) {
	ledgerMutations.WithLabelValues(kind).Inc()
	direction := "credit"
	if delta < 0 {
		direction = "debit"
		delta = -delta
	}
	ledgerPoints.WithLabelValues(kind, direction).Add(float64(delta))
}

// RecordReview counts an admin decision ("approved", "rejected", "verified").
func RecordReview(workflow, outcome string) {
	reviews.WithLabelValues(workflow, outcome).Inc()
}

// RecordHTTP observes one finished request.
func RecordHTTP(method, route string, status int, took time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// SetAudit publishes the latest value of an audit check.
func SetAudit(check string, value int64) {
	auditFindings.WithLabelValues(check).Set(float64(value))
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
