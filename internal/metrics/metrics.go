// Package metrics exposes Prometheus counters for record mutations and cloud
// sync operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MutationCounter counts committed record store mutations.
	MutationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piggery_mutations_total",
			Help: "Total number of committed record mutations",
		},
		[]string{"collection", "op"},
	)

	// SyncCounter counts cloud sync operations by outcome.
	SyncCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piggery_sync_operations_total",
			Help: "Total number of cloud sync operations",
		},
		[]string{"op", "outcome"},
	)

	// PersistFailureCounter counts local snapshot writes that failed. The
	// in-memory state stays authoritative when this ticks.
	PersistFailureCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "piggery_persist_failures_total",
			Help: "Total number of failed local snapshot writes",
		},
	)
)

// Register installs the collectors on the default registry. Call once at
// startup.
func Register() {
	prometheus.MustRegister(MutationCounter, SyncCounter, PersistFailureCounter)
}

// RecordMutation increments the mutation counter.
func RecordMutation(collection, op string) {
	MutationCounter.WithLabelValues(collection, op).Inc()
}

// RecordSync increments the sync counter.
func RecordSync(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SyncCounter.WithLabelValues(op, outcome).Inc()
}
