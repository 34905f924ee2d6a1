// Package telemetry provides application-level observability for Noteplane.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<NP_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router and
// is therefore invisible to tenant-scoped middleware.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Authorization denial counters (labelled by the rule that denied)
//   - Invitation lifecycle counters
//   - Attachment upload/download counters (labelled by storage backend)
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/tenants/:tenant_id/members)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as tenant or note IDs.
//
// # Usage
//
// Import the package for side effects so metrics are registered before the HTTP server
// starts listening:
//
//	import _ "github.com/noteplane/noteplane/internal/telemetry"
//
// Or import it directly and use an exported var:
//
//	telemetry.InvitationsIssuedTotal.Inc()
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /api/v1/tenants/:tenant_id/notes/:note_id),
// NOT the raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
//
// Example PromQL queries:
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
//   - Average latency:                   rate(http_request_duration_seconds_sum[5m]) / rate(http_request_duration_seconds_count[5m])
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Authorization metrics.
//
// AuthFailuresTotal is a CounterVec with label {reason} incremented whenever
// a request is rejected before reaching its handler.  Reasons: "unauthorized"
// (missing/invalid token), "tenant_required" (no tenant resolvable), and
// "forbidden" (membership or role check failed).  A spike in "forbidden" on a
// single tenant is a useful probing signal.
//
// Example PromQL queries:
//   - Denial rate by reason:  sum by (reason) (rate(auth_failures_total[5m]))
//   - Alert expression:       increase(auth_failures_total{reason="forbidden"}[10m]) > 100
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "Total number of requests rejected by authentication or authorization, by reason.",
	},
	[]string{"reason"},
)

// Invitation lifecycle metrics.
//
// InvitationsIssuedTotal is a plain Counter incremented once per invitation
// created.  InvitationsResolvedTotal is a CounterVec with label {outcome}
// ("accepted", "declined", "revoked", "expired") incremented when an
// invitation leaves the pending state.
//
// Example PromQL queries:
//   - Acceptance ratio:  sum(rate(invitations_resolved_total{outcome="accepted"}[7d])) / sum(rate(invitations_issued_total[7d]))
var (
	InvitationsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitations_issued_total",
			Help: "Total number of workspace invitations created.",
		},
	)

	InvitationsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitations_resolved_total",
			Help: "Total number of invitations leaving the pending state, by outcome.",
		},
		[]string{"outcome"},
	)
)

// Attachment metrics — recorded by the attachment handlers around storage
// backend calls.
//
// Both counters carry a {backend} label ("local", "s3") so backend migrations
// are visible in dashboards.
//
// Example PromQL queries:
//   - Upload rate by backend:  sum by (backend) (rate(attachment_uploads_total[1h]))
var (
	AttachmentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_uploads_total",
			Help: "Total number of attachment uploads written to storage, by backend.",
		},
		[]string{"backend"},
	)

	AttachmentDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_downloads_total",
			Help: "Total number of attachment downloads served from storage, by backend.",
		},
		[]string{"backend"},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <NP_DATABASE_MAX_CONNECTIONS> * 100
//   - Alert on near-exhaustion: db_open_connections > 20  (for max_connections=25)
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
