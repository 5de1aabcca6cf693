// Package metrics defines and registers all custom Prometheus metrics for the
// access-system API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "access"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "failure" or "throttled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionsOpenedTotal counts sessions created by successful logins.
var SessionsOpenedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_opened_total",
		Help:      "Total number of sessions opened.",
	},
)

// SessionsReapedTotal counts expired sessions deactivated on read.
var SessionsReapedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_reaped_total",
		Help:      "Total number of expired sessions deactivated during lookup.",
	},
)

// AuthResolutionsTotal counts bearer resolutions performed by the auth middleware.
// Label:
//   - outcome: "authenticated" or "anonymous"
var AuthResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_resolutions_total",
		Help:      "Total number of bearer token resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// PermissionChecksTotal counts permission matrix queries.
// Labels:
//   - resource: the queried resource name
//   - result: "granted" or "denied"
var PermissionChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_checks_total",
		Help:      "Total number of permission checks, by resource and result.",
	},
	[]string{"resource", "result"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index ("0", "1", ...)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
