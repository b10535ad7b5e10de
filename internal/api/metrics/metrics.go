// Package metrics defines and registers all custom Prometheus metrics for the
// customer portal. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// SignInsTotal counts credential exchanges.
// Label:
//   - result: "success", "rejected" or "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of credential exchanges, labelled by result.",
	},
	[]string{"result"},
)

// SessionRejectionsTotal counts session tokens that failed verification.
// Label:
//   - reason: "expired", "revoked" or "invalid"
var SessionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rejections_total",
		Help:      "Total number of session tokens rejected, by reason.",
	},
	[]string{"reason"},
)

// ── Customer query metrics ───────────────────────────────────────────────────

// CustomerQueryDuration measures one backend list query.
// Label:
//   - outcome: "loaded", "errored", "auth_required" or "stale"
var CustomerQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "customer_query_duration_seconds",
		Help:      "Duration of customer list queries against the backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// CustomerQueryStaleTotal counts list responses discarded because a newer
// query was issued while they were in flight.
var CustomerQueryStaleTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customer_query_stale_total",
		Help:      "Total number of customer list responses discarded as stale.",
	},
)

// QueryControllersActive tracks the number of live per-session controllers.
var QueryControllersActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "query_controllers_active",
		Help:      "Current number of live customer query controllers.",
	},
)

// ── Mutation metrics ─────────────────────────────────────────────────────────

// CustomerMutationsTotal counts mutation actions.
// Labels:
//   - action: "customer_create", "customer_update" or "customer_delete"
//   - result: "success", "failed", "forbidden" or "unauthorized"
var CustomerMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customer_mutations_total",
		Help:      "Total number of customer mutation actions, by action and result.",
	},
	[]string{"action", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of entries waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts audit entries dropped because a worker queue was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit entries dropped on a full queue.",
	},
)

// AuditWriteErrorsTotal counts audit entries that failed to persist.
var AuditWriteErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_errors_total",
		Help:      "Total number of audit entries that failed to persist.",
	},
)
