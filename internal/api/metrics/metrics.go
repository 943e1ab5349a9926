// Package metrics defines the custom Prometheus collectors for the CropSure
// API. promauto registers every collector with the default registry on
// package init, which is what GET /metrics exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cropsure"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method: HTTP method
//   - route:  the registered echo route (e.g. "/api/history/:id"), never the raw path
//   - code:   response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status code.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration measures handler latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register/login outcomes.
// Labels:
//   - action: "register" | "login" | "logout"
//   - result: "success" | "duplicate" | "invalid" | "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by action and result.",
	},
	[]string{"action", "result"},
)

// SessionsExpiredTotal counts sessions removed by the cleanup job.
var SessionsExpiredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_expired_total",
		Help:      "Total number of expired sessions removed by the janitor.",
	},
)

// ── History metrics ───────────────────────────────────────────────────────────

// HistoryOperationsTotal counts history writes.
// Label:
//   - op: "insert" | "delete"
var HistoryOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_operations_total",
		Help:      "Total number of history insert and delete operations.",
	},
	[]string{"op"},
)

// ── Analysis metrics ──────────────────────────────────────────────────────────

// AnalysisRequestsTotal counts calls to the external model.
// Label:
//   - result: "success" | "failed" | "unavailable" | "invalid"
var AnalysisRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_requests_total",
		Help:      "Total number of crop analysis requests, by result.",
	},
	[]string{"result"},
)

// AnalysisDuration measures model round-trip time, failures included.
var AnalysisDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Duration of crop analysis requests.",
		Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32, 60},
	},
)
