package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace   = "auth"
	dbSubsystem = "db"
)

// Pool gauges are refreshed by db.StartPoolMetrics; query metrics are
// labelled by the repository operation and the table it touches.
var (
	DBPoolAcquiredConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: dbSubsystem,
		Name:      "pool_acquired_connections",
		Help:      "Connections currently checked out of the pgx pool.",
	})

	DBPoolIdleConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: dbSubsystem,
		Name:      "pool_idle_connections",
		Help:      "Idle connections held by the pgx pool.",
	})

	DBPoolMaxConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: dbSubsystem,
		Name:      "pool_max_connections",
		Help:      "Configured pgx pool size.",
	})

	DBPoolTotalConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: dbSubsystem,
		Name:      "pool_total_connections",
		Help:      "Open connections in the pgx pool, idle or acquired.",
	})

	DBQueryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: dbSubsystem,
		Name:      "query_duration_seconds",
		Help:      "Latency of user and refresh token queries.",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation", "table"})

	DBQueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: dbSubsystem,
		Name:      "query_errors_total",
		Help:      "Failed user and refresh token queries by error type.",
	}, []string{"operation", "table", "error_type"})
)
