package metrics

import "slices"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	volumes := append(slices.Clone(filesystemVolumes), otherLabel)
	for _, vol := range volumes {
		for _, op := range filesystemOperations {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range retriedOperations {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	statuses := []string{"success", "unsupported_platform_version", "source_not_found",
		"unsupported_media_kind", "entry_creation_failed", "stream_open_failed",
		"copy_failed", "finalize_failed", "internal"}
	for _, kind := range []string{"image", "video", "unknown"} {
		for _, status := range statuses {
			SavesTotal.WithLabelValues(kind, status)
		}
		SaveDuration.WithLabelValues(kind)
	}

	for _, collection := range []string{"images", "videos"} {
		BytesCopied.WithLabelValues(collection)
		GalleryBytesTotal.WithLabelValues(collection)
		GalleryEntriesTotal.WithLabelValues(collection, "visible")
		GalleryEntriesTotal.WithLabelValues(collection, "pending")
	}

	for _, status := range []string{"delivered", "dropped", "failed"} {
		CallbacksTotal.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "insert_entry", "publish_entry",
		"get_entry", "list_entries", "delete_entry", "stats", "expired_pending"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}
}
