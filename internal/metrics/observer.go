package metrics

import (
	"slices"

	"gallery-ingest/internal/filesystem"
	"gallery-ingest/internal/logging"
)

// Label values the filesystem metrics are exported with. Anything else is
// folded into otherLabel so a stray path or operation cannot grow the series.
var (
	filesystemVolumes    = []string{filesystem.VolumeSource, "gallery", "database"}
	filesystemOperations = []string{"stat", "open", "create", "rename", "remove"}
	retriedOperations    = []string{"stat", "open"}
)

const otherLabel = "unknown"

// FilesystemObserver records the filesystem package's operations and retries
// into the Filesystem* metrics.
type FilesystemObserver struct{}

// NewFilesystemObserver returns the observer installed with
// filesystem.SetObserver at startup.
func NewFilesystemObserver() filesystem.Observer {
	return FilesystemObserver{}
}

func volumeLabel(volume string) string {
	if slices.Contains(filesystemVolumes, volume) {
		return volume
	}
	return otherLabel
}

func operationLabel(op string, known []string) string {
	if slices.Contains(known, op) {
		return op
	}
	return otherLabel
}

// ObserveOperation records one completed operation on volume.
func (FilesystemObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	vol, op := volumeLabel(volume), operationLabel(operation, filesystemOperations)
	FilesystemOperationDuration.WithLabelValues(vol, op).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(vol, op).Inc()
	}
}

func (FilesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(operationLabel(retryOp, retriedOperations), volumeLabel(volume)).Inc()
}

func (FilesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(operationLabel(retryOp, retriedOperations), volumeLabel(volume)).Inc()
}

// ObserveRetryFailure counts an operation that failed after every retry. On
// the source volume this is a save that will report SourceNotFound.
func (FilesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	vol := volumeLabel(volume)
	FilesystemRetryFailures.WithLabelValues(operationLabel(retryOp, retriedOperations), vol).Inc()
	if vol != filesystem.VolumeSource {
		logging.Warn("Filesystem: %s on %s volume failed after retries", retryOp, vol)
	}
}

func (FilesystemObserver) ObserveRetryDuration(retryOp, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(operationLabel(retryOp, retriedOperations), volumeLabel(volume)).Observe(durationSeconds)
}

func (FilesystemObserver) ObserveStaleError(retryOp, volume string) {
	vol := volumeLabel(volume)
	FilesystemStaleErrors.WithLabelValues(operationLabel(retryOp, retriedOperations), vol).Inc()
	logging.Debug("Filesystem: stale handle during %s on %s volume", retryOp, vol)
}
