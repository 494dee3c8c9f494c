package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the sync service

var (
	// Feed metrics
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nbasync_feed_fetches_total",
			Help: "Total number of scoreboard feed fetches",
		},
		[]string{"sport", "status"},
	)

	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nbasync_feed_fetch_duration_seconds",
			Help:    "Duration of scoreboard feed fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sport"},
	)

	// Store metrics
	StoreCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nbasync_store_calls_total",
			Help: "Total number of tabular store API calls",
		},
		[]string{"operation", "table", "status"},
	)

	StoreCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nbasync_store_call_duration_seconds",
			Help:    "Duration of tabular store API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nbasync_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nbasync_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// Reconciliation metrics
	RecordsReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nbasync_records_reconciled_total",
			Help: "Total number of team game records reconciled",
		},
		[]string{"outcome"},
	)

	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nbasync_sync_operations_total",
			Help: "Total number of sync passes",
		},
		[]string{"type", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nbasync_sync_duration_seconds",
			Help:    "Duration of sync passes in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"type"},
	)

	RanksAssigned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nbasync_ranks_assigned",
			Help: "Number of team rows ranked in the last recomputation",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nbasync_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nbasync_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nbasync_last_successful_sync_timestamp",
			Help: "Timestamp of last successful sync pass",
		},
	)
)

// RecordFeedFetch records a feed fetch metric
func RecordFeedFetch(sport, status string) {
	FeedFetchesTotal.WithLabelValues(sport, status).Inc()
}

// RecordStoreCall records a store call metric
func RecordStoreCall(operation, table, status string, duration float64) {
	StoreCallsTotal.WithLabelValues(operation, table, status).Inc()
	StoreCallDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordReconcile records a reconciliation outcome
func RecordReconcile(outcome string) {
	RecordsReconciled.WithLabelValues(outcome).Inc()
}

// RecordSync records a sync pass
func RecordSync(syncType, status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(syncType, status).Inc()
	SyncDuration.WithLabelValues(syncType).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
