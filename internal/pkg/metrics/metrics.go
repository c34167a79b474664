// Package metrics defines and registers the custom Prometheus metrics of the
// payroll API. It is the single source of truth for metric names, labels and
// help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; the /metrics route serves that registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "payroll"

// ── Employee metrics ──────────────────────────────────────────────────────────

// EmployeeMutationsTotal counts successful employee writes.
// Label:
//   - operation: "create", "update" or "delete"
var EmployeeMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "employee_mutations_total",
		Help:      "Total number of successful employee writes, by operation.",
	},
	[]string{"operation"},
)

// IdempotentReplaysTotal counts create requests answered from an earlier
// Idempotency-Key.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of create requests replayed from an idempotency key.",
	},
)

// ── Aggregate metrics ─────────────────────────────────────────────────────────

// AggregatesTotal counts aggregate computations.
// Labels:
//   - aggregate: e.g. "total_payroll", "top_n", "grouped_by_department"
//   - result: "ok" or the error kind ("empty_collection", "invalid_state", …)
var AggregatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregates_total",
		Help:      "Total number of payroll aggregate computations, by aggregate and result.",
	},
	[]string{"aggregate", "result"},
)

// AggregateDuration measures snapshot read plus computation time.
// Label:
//   - aggregate: same values as AggregatesTotal
var AggregateDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregate_duration_seconds",
		Help:      "Duration of an aggregate computation including the snapshot read.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"aggregate"},
)

// SnapshotSize tracks the number of employees in the last snapshot read.
var SnapshotSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_employees",
		Help:      "Number of employee records in the most recent full snapshot.",
	},
)
