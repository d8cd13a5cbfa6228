package saver

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"gallery-ingest/internal/ingest"
	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/mediatypes"
	"gallery-ingest/internal/metrics"
	"gallery-ingest/internal/workers"
)

// Store writes one file into the gallery and returns its URI.
type Store interface {
	Store(ctx context.Context, sourcePath string, kind mediatypes.Kind, album, finalName string) (string, error)
}

// Deliverer sends a result to the caller that asked for it.
type Deliverer interface {
	Deliver(result ingest.SaveResult, target, method string) error
}

// Saver turns save requests into queued store operations.
type Saver struct {
	queue     *workers.Serial
	store     Store
	deliverer Deliverer
	apiLevel  int
}

// New returns a Saver. apiLevel is the platform API level; below
// ingest.MinAPILevel every request fails without touching the filesystem.
func New(queue *workers.Serial, store Store, d Deliverer, apiLevel int) *Saver {
	return &Saver{
		queue:     queue,
		store:     store,
		deliverer: d,
		apiLevel:  apiLevel,
	}
}

// APILevel returns the platform API level requests are checked against.
func (s *Saver) APILevel() int {
	return s.apiLevel
}

// SaveMediaToGallery queues a save of sourcePath into album albumName as
// fileBaseName plus the source's extension. The result is delivered later to
// callbackMethod of callbackTarget.
func (s *Saver) SaveMediaToGallery(sourcePath, albumName, fileBaseName, callbackTarget, callbackMethod string, requestID int) {
	s.Submit(ingest.SaveRequest{
		SourcePath:     sourcePath,
		AlbumName:      albumName,
		FileBaseName:   fileBaseName,
		CallbackTarget: callbackTarget,
		CallbackMethod: callbackMethod,
		RequestID:      requestID,
	})
}

// Submit queues req. It never blocks.
func (s *Saver) Submit(req ingest.SaveRequest) {
	logging.Debug("Save request %d queued: %s -> DCIM/%s/%s", req.RequestID, req.SourcePath, req.AlbumName, req.FileBaseName)
	s.queue.Submit(func() {
		result := s.Process(context.Background(), req)
		// Delivery failures are logged by the dispatcher.
		_ = s.deliverer.Deliver(result, req.CallbackTarget, req.CallbackMethod)
	})
}

// Process runs req synchronously and returns its result. It is what the
// queue runs for each request; it is exported for one-shot callers.
func (s *Saver) Process(ctx context.Context, req ingest.SaveRequest) (result ingest.SaveResult) {
	start := time.Now()
	kind := mediatypes.KindUnknown
	var err error

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Save request %d panicked: %v\n%s", req.RequestID, r, debug.Stack())
			err = &ingest.Error{Kind: ingest.Internal, Op: "save", Err: fmt.Errorf("panic: %v", r)}
			result = ingest.Failed(req.RequestID, err)
		}

		status := "success"
		if err != nil {
			status = ingest.KindOf(err).String()
		}
		metrics.SavesTotal.WithLabelValues(kind.String(), status).Inc()
		metrics.SaveDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	}()

	var uri string
	uri, err = s.save(ctx, req, &kind)
	if err != nil {
		logging.Warn("Save request %d failed: %v", req.RequestID, err)
		return ingest.Failed(req.RequestID, err)
	}

	logging.Info("Save request %d stored %s as %s", req.RequestID, req.SourcePath, uri)
	return ingest.Succeeded(req.RequestID, uri)
}

func (s *Saver) save(ctx context.Context, req ingest.SaveRequest, kind *mediatypes.Kind) (string, error) {
	if s.apiLevel < ingest.MinAPILevel {
		return "", &ingest.Error{
			Kind:   ingest.UnsupportedPlatformVersion,
			Op:     "check platform",
			Detail: fmt.Sprintf("API level %d", s.apiLevel),
		}
	}

	finalName := req.FileBaseName + "." + mediatypes.ExtensionOf(filepath.Base(req.SourcePath))
	*kind = mediatypes.Classify(mediatypes.ExtensionOf(finalName))

	return s.store.Store(ctx, req.SourcePath, *kind, req.AlbumName, finalName)
}

// Shutdown waits for queued requests to finish. The Saver can still be used
// afterwards; the next request restarts the queue.
func (s *Saver) Shutdown(ctx context.Context) error {
	return s.queue.Shutdown(ctx)
}

// Pending returns the number of requests waiting to run.
func (s *Saver) Pending() int {
	return s.queue.Len()
}
