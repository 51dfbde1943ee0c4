package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pose_browser_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pose_browser_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Sync metrics. kind is "documents" or "images".
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_sync_runs_total",
			Help: "Total number of sync passes started",
		},
		[]string{"kind"},
	)

	SyncDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_sync_dropped_total",
			Help: "Sync requests dropped because one was already in flight",
		},
		[]string{"kind"},
	)

	SyncRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pose_browser_sync_running",
			Help: "Whether a sync pass is in flight (1 = running, 0 = idle)",
		},
		[]string{"kind"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pose_browser_sync_duration_seconds",
			Help:    "Sync pass duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	SyncLastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pose_browser_sync_last_run_timestamp",
			Help: "Unix timestamp of the last completed sync pass",
		},
		[]string{"kind"},
	)

	RefreshGatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pose_browser_refresh_gated_total",
			Help: "Refresh requests skipped by the minimum interval gate",
		},
	)
)

// Library metrics
var (
	LibraryDocuments = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pose_browser_library_documents",
			Help: "Indexed documents by format",
		},
		[]string{"format"},
	)

	LibraryDocumentsWithImage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pose_browser_library_documents_with_image",
			Help: "Indexed documents with a resolved preview image",
		},
	)

	LibraryWalkErrors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pose_browser_library_walk_errors",
			Help: "Unreadable entries skipped during the last library walk",
		},
	)

	LibraryRoots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pose_browser_library_roots",
			Help: "Number of configured library roots",
		},
	)
)

// Image resolution metrics
var (
	ImageResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_image_resolutions_total",
			Help: "Image resolutions by winning source",
		},
		[]string{"source"}, // "embedded", "sibling", "parent", "none", "error", "skipped"
	)

	ImageResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pose_browser_image_resolve_duration_seconds",
			Help:    "Per-document image resolution duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
	)

	EmbeddedCacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_embedded_cache_writes_total",
			Help: "Embedded images materialised into the cache directory",
		},
		[]string{"status"},
	)
)

// Thumbnail metrics
var (
	ThumbnailRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_thumbnail_renders_total",
			Help: "Thumbnail renders by status",
		},
		[]string{"status"},
	)

	ThumbnailRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pose_browser_thumbnail_render_duration_seconds",
			Help:    "Thumbnail render duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pose_browser_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pose_browser_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)
)

// Applier metrics
var (
	ApplierCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_applier_calls_total",
			Help: "Calls against the external pose applier",
		},
		[]string{"op", "status"}, // op: "apply", "undo"; status: "ok", "rejected", "error", "skipped"
	)

	ApplierAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pose_browser_applier_available",
			Help: "Whether the external pose applier is reachable (1 = yes)",
		},
	)

	PreviewActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pose_browser_preview_active",
			Help: "Whether a temporary preview is applied (1 = yes)",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pose_browser_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_filesystem_operation_errors_total",
			Help: "Filesystem operation errors",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_filesystem_retry_attempts_total",
			Help: "Retries issued after an NFS stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_filesystem_retry_success_total",
			Help: "Operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Settings store metrics
var (
	SettingsQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pose_browser_settings_queries_total",
			Help: "Settings store queries by operation and status",
		},
		[]string{"operation", "status"},
	)

	SettingsQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pose_browser_settings_query_duration_seconds",
			Help:    "Settings store query duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)
)

// Memory backpressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pose_browser_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pose_browser_memory_paused",
			Help: "Whether image work is paused for memory pressure (1 = yes)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pose_browser_memory_gc_pauses_total",
			Help: "Times image work was paused and a GC forced for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pose_browser_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
