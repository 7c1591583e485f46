// Package metrics defines and registers all custom Prometheus metrics for the
// profile manager API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation; the /metrics route exposes them next to the HTTP metrics
// collected by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "profile_manager"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginAttemptsTotal counts credential logins.
// Labels:
//   - event: "user_login" or "admin_login"
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by principal kind and result.",
	},
	[]string{"event", "result"},
)

// GuardRejectionsTotal counts requests halted by the access guard.
// Labels:
//   - principal: "user" or "admin"
//   - status: HTTP status returned ("401" or "403")
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected by the access guard.",
	},
	[]string{"principal", "status"},
)

// UsersProvisionedTotal counts users created by admins.
var UsersProvisionedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_provisioned_total",
		Help:      "Total number of user accounts created.",
	},
)

// ── Upstream profile API metrics ──────────────────────────────────────────────

// UpstreamRequestsTotal counts calls to the external profile API.
// Labels:
//   - op: "fetch" or "update"
//   - outcome: "ok", "upstream_error" or "transport_error"
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of external profile API calls, by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// UpstreamRequestDuration measures external profile API latency including retries.
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of external profile API calls, retries included.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Edge metrics ──────────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by the per-IP limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)

// AuditEventsDroppedTotal counts audit events discarded because a worker queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of authentication audit events dropped on full queues.",
	},
)

// AuditQueueDepth tracks pending events in each audit worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each worker channel.",
	},
	[]string{"worker_id"},
)
