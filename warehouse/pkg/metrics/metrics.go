package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WarehouseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_dashboard_warehouse_queries_total",
			Help: "Total number of warehouse queries by operation",
		},
		[]string{"operation", "status"},
	)

	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orders_dashboard_warehouse_query_duration_seconds",
			Help:    "Duration of warehouse queries by operation",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~41s
		},
		[]string{"operation"},
	)

	LookupCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_dashboard_lookup_cache_total",
			Help: "Lookup cache accesses by lookup and result (hit, miss)",
		},
		[]string{"lookup", "result"},
	)

	ViewsMaterializedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_dashboard_views_materialized_total",
			Help: "Total number of saved view materializations",
		},
		[]string{"status"},
	)
)

// RecordQuery records the outcome and duration of one warehouse query.
func RecordQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	WarehouseQueriesTotal.WithLabelValues(operation, status).Inc()
	WarehouseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLookup records a lookup cache hit or miss.
func RecordLookup(lookup string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	LookupCacheTotal.WithLabelValues(lookup, result).Inc()
}
