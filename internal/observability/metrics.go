// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Remote client metrics
	RPCCallsTotal   *prometheus.CounterVec
	RPCRetriesTotal *prometheus.CounterVec
	RPCCallLatency  *prometheus.HistogramVec

	// Scan metrics
	SignaturesCollected prometheus.Counter
	PagesFetched        prometheus.Counter
	RecordsFetched      prometheus.Counter
	RecordsNotFound     prometheus.Counter
	FetchErrors         prometheus.Counter

	// Extraction metrics
	DepositsExtracted *prometheus.CounterVec
	DepositsCounted   prometheus.Counter

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Database metrics
	SnapshotsPersisted prometheus.Counter
	PersistenceErrors  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "hzk_leaderboard"
	}

	return &Metrics{
		RPCCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_calls_total",
			Help:      "Total number of RPC calls by method and status",
		}, []string{"method", "status"}),
		RPCRetriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_retries_total",
			Help:      "Total number of RPC retry attempts by method",
		}, []string{"method"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		SignaturesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "signatures_collected_total",
			Help:      "Total number of unique signatures collected",
		}),
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "pages_fetched_total",
			Help:      "Total number of signature pages fetched",
		}),
		RecordsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "records_fetched_total",
			Help:      "Total number of transaction records fetched",
		}),
		RecordsNotFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "records_not_found_total",
			Help:      "Total number of signatures whose record was not found",
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed transaction fetches",
		}),

		DepositsExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "deposits_extracted_total",
			Help:      "Total number of deposit events by extraction strategy",
		}, []string{"strategy"}),
		DepositsCounted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "deposits_counted_total",
			Help:      "Total number of deposit events accepted by the aggregator",
		}),

		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		SnapshotsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "snapshots_persisted_total",
			Help:      "Total number of snapshots persisted to the store",
		}),
		PersistenceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "persistence_errors_total",
			Help:      "Total number of snapshot persistence failures",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCCall records one completed RPC call.
func RecordRPCCall(method, status string, seconds float64) {
	DefaultMetrics.RPCCallsTotal.WithLabelValues(method, status).Inc()
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCRetry records one retry attempt.
func RecordRPCRetry(method string) {
	DefaultMetrics.RPCRetriesTotal.WithLabelValues(method).Inc()
}

// RecordDeposit records one extracted deposit event.
func RecordDeposit(strategy string) {
	DefaultMetrics.DepositsExtracted.WithLabelValues(strategy).Inc()
}

// RecordRun records a completed pipeline run.
func RecordRun(status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
}
