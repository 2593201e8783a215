package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "itemdex"

// Synchronization and search Prometheus metrics.
var (
	IndexSyncFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_sync_failures_total",
			Help:      "Index writes that failed after the primary store committed",
		},
		[]string{"op"},
	)

	ReconcileItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_items_total",
			Help:      "Items processed by reconciliation",
		},
		[]string{"result"}, // "success" / "failure" / "orphan_removed"
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Reconciliation pass duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search requests by outcome",
		},
		[]string{"status"}, // "ok" / "unavailable"
	)
)

var syncMetricsRegistered bool

// RegisterSyncMetrics registers synchronization and search metrics. Must be called once from main.
func RegisterSyncMetrics() {
	if syncMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexSyncFailuresTotal)
	prometheus.MustRegister(ReconcileItemsTotal)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(SearchRequestsTotal)
	syncMetricsRegistered = true
}
