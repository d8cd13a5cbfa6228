package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFilesystemObserver_OperationLabels(t *testing.T) {
	tests := []struct {
		name          string
		volume, op    string
		wantVol, want string
	}{
		{"known volume and operation", "gallery", "rename", "gallery", "rename"},
		{"source volume", "source", "stat", "source", "stat"},
		{"unconfigured volume", "scratch", "create", "unknown", "create"},
		{"unknown operation", "database", "readdir", "database", "unknown"},
	}

	o := NewFilesystemObserver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := FilesystemOperationErrors.WithLabelValues(tt.wantVol, tt.want)
			before := testutil.ToFloat64(errs)

			o.ObserveOperation(tt.volume, tt.op, 0.01, nil)
			if got := testutil.ToFloat64(errs); got != before {
				t.Errorf("errors counted for a successful operation: %v -> %v", before, got)
			}

			o.ObserveOperation(tt.volume, tt.op, 0.01, errors.New("boom"))
			if got := testutil.ToFloat64(errs); got != before+1 {
				t.Errorf("errors{%s,%s} = %v, want %v", tt.wantVol, tt.want, got, before+1)
			}
		})
	}

	if n := testutil.CollectAndCount(FilesystemOperationErrors, "gallery_ingest_filesystem_operation_errors_total"); n == 0 {
		t.Error("no error series collected")
	}
}

func TestFilesystemObserver_Retries(t *testing.T) {
	o := NewFilesystemObserver()

	attempts := FilesystemRetryAttempts.WithLabelValues("open", "unknown")
	stale := FilesystemStaleErrors.WithLabelValues("open", "unknown")
	success := FilesystemRetrySuccess.WithLabelValues("stat", "gallery")
	failures := FilesystemRetryFailures.WithLabelValues("unknown", "database")

	beforeAttempts := testutil.ToFloat64(attempts)
	beforeStale := testutil.ToFloat64(stale)
	beforeSuccess := testutil.ToFloat64(success)
	beforeFailures := testutil.ToFloat64(failures)

	o.ObserveStaleError("open", "/mnt/elsewhere")
	o.ObserveRetryAttempt("open", "/mnt/elsewhere")
	o.ObserveRetrySuccess("stat", "gallery")
	o.ObserveRetryFailure("write", "database")
	o.ObserveRetryDuration("stat", "gallery", 0.2)

	if got := testutil.ToFloat64(attempts); got != beforeAttempts+1 {
		t.Errorf("retry attempts = %v, want %v", got, beforeAttempts+1)
	}
	if got := testutil.ToFloat64(stale); got != beforeStale+1 {
		t.Errorf("stale errors = %v, want %v", got, beforeStale+1)
	}
	if got := testutil.ToFloat64(success); got != beforeSuccess+1 {
		t.Errorf("retry success = %v, want %v", got, beforeSuccess+1)
	}
	if got := testutil.ToFloat64(failures); got != beforeFailures+1 {
		t.Errorf("retry failures = %v, want %v", got, beforeFailures+1)
	}
}
