// Package metrics provides Prometheus instrumentation for the pose browser.
//
// All metrics are prefixed with "pose_browser_" and registered on the default
// registry through promauto, so importing the package is enough to export
// them on /metrics.
//
// # Metric Categories
//
// ## Sync Metrics
//
// Document and image sync passes, labelled by kind ("documents", "images"):
//   - SyncRunsTotal, SyncDroppedTotal: started and dropped (already in flight) passes
//   - SyncRunning: 1 while a pass of that kind is in flight
//   - SyncDuration, SyncLastRunTimestamp
//   - RefreshGatedTotal: refreshes skipped by the minimum interval
//
// ## Library Metrics
//
// Updated by the Collector from a StatsProvider:
//   - LibraryDocuments (by format), LibraryDocumentsWithImage, LibraryRoots
//   - LibraryWalkErrors: unreadable entries in the last walk
//
// ## Image and Thumbnail Metrics
//
//   - ImageResolutionsTotal: which source produced the preview
//   - ImageResolveDuration
//   - EmbeddedCacheWrites
//   - ThumbnailRendersTotal, ThumbnailRenderDuration, cache hits and misses
//
// ## Applier Metrics
//
//   - ApplierCallsTotal: apply and undo calls by outcome
//   - ApplierAvailable, PreviewActive
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver.
//
// ## Memory Metrics
//
// Set by the memory.Monitor gating image work:
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses
//
// # Initialization
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
