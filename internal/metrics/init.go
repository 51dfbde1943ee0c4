package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, kind := range []string{"documents", "images"} {
		SyncRunsTotal.WithLabelValues(kind)
		SyncDroppedTotal.WithLabelValues(kind)
		SyncRunning.WithLabelValues(kind)
		SyncDuration.WithLabelValues(kind)
		SyncLastRunTimestamp.WithLabelValues(kind)
	}

	for _, format := range []string{"anamnesis", "cmtool"} {
		LibraryDocuments.WithLabelValues(format)
	}

	for _, source := range []string{"embedded", "sibling", "parent", "none", "error", "skipped"} {
		ImageResolutionsTotal.WithLabelValues(source)
	}

	for _, status := range []string{"success", "error"} {
		EmbeddedCacheWrites.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error_not_found", "error_decode", "error_encode"} {
		ThumbnailRendersTotal.WithLabelValues(status)
	}

	for _, op := range []string{"apply", "undo"} {
		for _, status := range []string{"ok", "rejected", "error", "skipped"} {
			ApplierCallsTotal.WithLabelValues(op, status)
		}
	}

	for _, op := range []string{"get", "set", "list_roots", "add_root", "clear_roots"} {
		SettingsQueryDuration.WithLabelValues(op)
		for _, status := range []string{"success", "error"} {
			SettingsQueryTotal.WithLabelValues(op, status)
		}
	}

	volumes := []string{"library", "cache", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "readdir", "read"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
