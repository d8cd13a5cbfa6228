package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gallery-ingest/internal/filesystem"
	"gallery-ingest/internal/gallery"
	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/mediatypes"
	"gallery-ingest/internal/metrics"
)

// copyBufferSize is the chunk size used when copying into the gallery.
const copyBufferSize = 8 * 1024

// albumRoot prefixes every album's relative path.
const albumRoot = "DCIM/"

// AlbumPath returns the canonical relative path of album under DCIM.
// Equivalent spellings such as "Test" and "Test/" map to the same path; an
// album that resolves outside DCIM is an error.
func AlbumPath(album string) (string, error) {
	rel, err := gallery.CleanRelativePath(albumRoot + album)
	if err != nil {
		return "", err
	}
	if rel != strings.TrimSuffix(albumRoot, "/") && !strings.HasPrefix(rel, albumRoot) {
		return "", fmt.Errorf("album %q is outside %s", album, albumRoot)
	}
	return rel, nil
}

// Collection is the media collection a Writer stores into.
type Collection interface {
	Insert(ctx context.Context, c mediatypes.Collection, v gallery.EntryValues) (int64, error)
	OpenWriter(ctx context.Context, id int64) (gallery.Stream, error)
	Publish(ctx context.Context, id, size int64) error
}

// ProbeFunc reports the dimensions of the image at path. name is the final
// display name and decides whether path is treated as an image.
type ProbeFunc func(path, name string) (width, height int, err error)

// Writer performs staged stores into a Collection. It is not safe for
// concurrent use; callers serialize Store calls.
type Writer struct {
	collection Collection
	probe      ProbeFunc
	retry      filesystem.RetryConfig
	now        func() time.Time
}

// NewWriter returns a Writer for c. probe may be nil.
func NewWriter(c Collection, probe ProbeFunc) *Writer {
	return &Writer{
		collection: c,
		probe:      probe,
		retry:      filesystem.DefaultRetryConfig(),
		now:        time.Now,
	}
}

// Store copies sourcePath into the collection for kind under
// DCIM/<album>/<finalName> and returns the gallery URI of the new entry.
//
// The entry is inserted pending and published only after every byte is
// copied and flushed. On failure after the insert the entry is left pending;
// it is not deleted here.
func (w *Writer) Store(ctx context.Context, sourcePath string, kind mediatypes.Kind, album, finalName string) (string, error) {
	info, err := filesystem.StatWithRetry(sourcePath, w.retry)
	if err != nil {
		return "", newError(SourceNotFound, "stat source", err)
	}
	if !info.Mode().IsRegular() {
		return "", newError(SourceNotFound, "stat source", fmt.Errorf("%s is not a regular file", sourcePath))
	}

	collection, ok := kind.Collection()
	if !ok {
		return "", &Error{Kind: UnsupportedMediaKind, Op: "classify", Detail: mediatypes.ExtensionOf(finalName)}
	}

	relPath, err := AlbumPath(album)
	if err != nil {
		return "", newError(EntryCreationFailed, "album path", err)
	}

	values := gallery.EntryValues{
		DisplayName:  finalName,
		MimeType:     mediatypes.MimeOf(mediatypes.ExtensionOf(finalName)),
		RelativePath: relPath,
		DateTaken:    time.UnixMilli(w.now().UnixMilli()),
	}
	if kind == mediatypes.KindImage && w.probe != nil {
		if width, height, err := w.probe(sourcePath, finalName); err != nil {
			logging.Debug("Store: no dimensions for %s: %v", sourcePath, err)
		} else {
			values.Width, values.Height = width, height
		}
	}

	id, err := w.collection.Insert(ctx, collection, values)
	if err != nil {
		return "", newError(EntryCreationFailed, "insert entry", err)
	}
	if id <= 0 {
		return "", newError(EntryCreationFailed, "insert entry", errors.New("collection returned no entry"))
	}
	logging.Debug("Store: created pending entry %s", gallery.URI(collection, id))

	dst, err := w.collection.OpenWriter(ctx, id)
	if err != nil {
		logging.Warn("Store: entry %s left pending: %v", gallery.URI(collection, id), err)
		return "", newError(StreamOpenFailed, "open destination", err)
	}
	closeDst := closeOnce(dst, "destination")
	defer closeDst()

	src, err := filesystem.OpenWithRetry(sourcePath, w.retry)
	if err != nil {
		return "", newError(StreamOpenFailed, "open source", err)
	}
	closeSrc := closeOnce(src, "source")
	defer closeSrc()

	written, err := copyChunks(dst, src)
	if err != nil {
		return "", newError(CopyFailed, "copy", err)
	}

	if err := dst.Sync(); err != nil {
		return "", newError(FinalizeFailed, "flush destination", err)
	}
	closeDst()

	if err := w.collection.Publish(ctx, id, written); err != nil {
		return "", newError(FinalizeFailed, "publish entry", err)
	}

	metrics.BytesCopied.WithLabelValues(string(collection)).Add(float64(written))
	uri := gallery.URI(collection, id)
	logging.Debug("Store: copied %d bytes into %s", written, uri)
	return uri, nil
}

// copyChunks copies src to dst in copyBufferSize chunks and returns the
// number of bytes written.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, fmt.Errorf("write: %w", writeErr)
			}
			if wn != n {
				return written, fmt.Errorf("write: %w", io.ErrShortWrite)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("read: %w", readErr)
		}
	}
}

// closeOnce returns a func that closes c the first time it is called.
// Close errors are logged and otherwise ignored.
func closeOnce(c io.Closer, name string) func() {
	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logging.Warn("Store: failed to close %s stream: %v", name, err)
		}
	}
}
