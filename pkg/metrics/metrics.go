// Package metrics provides Prometheus metrics for nvmetctl's core
// operations: gathering kernel state, diffing two states, and applying
// a delta list to the configfs tree.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nvmetctl"

// Core operation names.
const (
	OpGather = "gather"
	OpDiff   = "diff"
	OpApply  = "apply"
)

// Delta kinds, used to label per-kind apply counters.
const (
	DeltaAddPort        = "add_port"
	DeltaUpdatePort     = "update_port"
	DeltaRemovePort     = "remove_port"
	DeltaAddSubsystem   = "add_subsystem"
	DeltaUpdateSubsystem = "update_subsystem"
	DeltaRemoveSubsystem = "remove_subsystem"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of core operations by operation type and status",
		},
		[]string{"operation", "status"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of core operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"operation"},
	)

	deltasAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_applied_total",
			Help:      "Total number of individual state deltas applied, by kind and status",
		},
		[]string{"kind", "status"},
	)

	deltasComputedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_computed_total",
			Help:      "Total number of state deltas computed by the delta engine, by kind",
		},
		[]string{"kind"},
	)

	portsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ports",
			Help:      "Number of ports in the most recently gathered state",
		},
	)

	subsystemsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subsystems",
			Help:      "Number of subsystems in the most recently gathered state",
		},
	)
)

// RecordOperation records the outcome of a gather/diff/apply operation.
func RecordOperation(operation, status string, duration time.Duration) {
	operationsTotal.WithLabelValues(operation, status).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDeltaApplied records the outcome of applying a single StateDelta.
func RecordDeltaApplied(kind, status string) {
	deltasAppliedTotal.WithLabelValues(kind, status).Inc()
}

// RecordDeltaComputed records one delta of the given kind emitted by the
// delta engine.
func RecordDeltaComputed(kind string) {
	deltasComputedTotal.WithLabelValues(kind).Inc()
}

// SetGatheredCounts records the size of the most recently gathered state.
func SetGatheredCounts(ports, subsystems int) {
	portsGauge.Set(float64(ports))
	subsystemsGauge.Set(float64(subsystems))
}

// OperationTimer times a core operation and records its outcome.
type OperationTimer struct {
	start     time.Time
	operation string
}

// NewOperationTimer starts timing operation.
func NewOperationTimer(operation string) *OperationTimer {
	return &OperationTimer{start: time.Now(), operation: operation}
}

// ObserveSuccess records a successful operation.
func (t *OperationTimer) ObserveSuccess() {
	RecordOperation(t.operation, "success", time.Since(t.start))
}

// ObserveError records a failed operation.
func (t *OperationTimer) ObserveError() {
	RecordOperation(t.operation, "error", time.Since(t.start))
}
