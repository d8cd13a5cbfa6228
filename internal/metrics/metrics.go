package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_ingest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_ingest_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_db_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_ingest_db_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_ingest_db_transaction_duration_seconds",
			Help:    "Catalog transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"outcome"}, // "commit" or "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_ingest_db_connections_open",
			Help: "Number of open catalog connections",
		},
	)
)

// Save pipeline metrics
var (
	SavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_saves_total",
			Help: "Total number of save requests by media kind and outcome",
		},
		[]string{"kind", "status"}, // status is "success" or an error kind
	)

	SaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_ingest_save_duration_seconds",
			Help:    "Time from dequeue to result for save requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	BytesCopied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_bytes_copied_total",
			Help: "Total bytes streamed into the gallery, including aborted copies",
		},
		[]string{"collection"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_ingest_queue_depth",
			Help: "Number of save requests waiting for the serial worker",
		},
	)

	WorkerBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_ingest_worker_busy",
			Help: "Whether the serial worker is running a task (1 = busy, 0 = idle)",
		},
	)

	WorkerRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_ingest_worker_starts_total",
			Help: "Number of times the serial worker was (re)created",
		},
	)

	WorkerPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_ingest_worker_panics_total",
			Help: "Number of tasks that panicked on the serial worker",
		},
	)
)

// Callback metrics
var (
	CallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_callbacks_total",
			Help: "Result callbacks by outcome",
		},
		[]string{"status"}, // "delivered", "dropped", "failed"
	)
)

// Gallery contents metrics
var (
	GalleryEntriesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_ingest_entries_total",
			Help: "Number of gallery entries by collection and state",
		},
		[]string{"collection", "state"}, // state is "visible" or "pending"
	)

	GalleryBytesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_ingest_entry_bytes_total",
			Help: "Bytes stored in visible gallery entries by collection",
		},
		[]string{"collection"},
	)

	SweeperRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_ingest_sweeper_removed_total",
			Help: "Expired pending entries removed by the sweeper",
		},
	)

	SweeperLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_ingest_sweeper_last_run_timestamp",
			Help: "Unix timestamp of the last sweeper run",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_ingest_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_filesystem_retry_attempts_total",
			Help: "Retry attempts after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_filesystem_retry_failures_total",
			Help: "Operations that still failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_ingest_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_ingest_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retrying filesystem operations",
			Buckets: []float64{0.0005, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_ingest_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version", "api_level"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion, apiLevel string) {
	AppInfo.WithLabelValues(version, commit, goVersion, apiLevel).Set(1)
}
