// Package metrics holds the Prometheus collectors of the dashboard. They are
// registered with the default registry on import and served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ccpp"

// LoginAttemptsTotal counts login attempts.
// Label:
//   - outcome: "success", "failure" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts by outcome.",
	},
	[]string{"outcome"},
)

// DataLoadsTotal counts table reads that reached the backend.
// Labels:
//   - kind: "contracts" or "users"
//   - result: "ok" or "error"
var DataLoadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_loads_total",
		Help:      "Total number of spreadsheet reads against the data backend.",
	},
	[]string{"kind", "result"},
)

// DataLoadDuration measures backend read latency.
var DataLoadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "data_load_duration_seconds",
		Help:      "Duration of spreadsheet reads against the data backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// DataCacheTotal counts cache lookups.
// Label:
//   - result: "hit" or "miss"
var DataCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_cache_total",
		Help:      "Total number of data cache lookups by result.",
	},
	[]string{"result"},
)

// DataInvalidationsTotal counts cache invalidations.
// Label:
//   - trigger: "watcher", "amqp", "admin" or "manual"
var DataInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_invalidations_total",
		Help:      "Total number of data cache invalidations by trigger.",
	},
	[]string{"trigger"},
)

// ExportsTotal counts CSV downloads.
var ExportsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Total number of CSV exports served.",
	},
)

// ActiveSessions tracks sessions created minus sessions ended.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of sessions opened and not yet closed by this process.",
	},
)

// HTTPRequestDuration measures request latency.
// Labels:
//   - method: HTTP method
//   - route: registered route pattern
//   - status: HTTP status code class ("2xx", "4xx", ...)
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// SuspiciousRequestsTotal counts requests flagged by the security detector.
// Label:
//   - reason: "path", "query", "agent", "method" or "length"
var SuspiciousRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suspicious_requests_total",
		Help:      "Total number of requests flagged as suspicious.",
	},
	[]string{"reason"},
)

// StatusClass folds an HTTP status code into its class label.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
