package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"gallery-ingest/internal/database"
	"gallery-ingest/internal/filesystem"
	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/mediatypes"
	"gallery-ingest/internal/metrics"
)

const (
	// StagingDir is the hidden directory under the root that holds the bytes
	// of pending entries.
	StagingDir = ".pending"
	lockName   = ".gallery.lock"
	uriScheme  = "gallery://"
)

var (
	// ErrLocked is returned by Open when another process holds the gallery.
	ErrLocked = errors.New("gallery is locked by another process")
	// ErrExists is returned by Publish when the destination file already exists.
	ErrExists = errors.New("destination already exists")
)

// EntryValues are the attributes of a new entry.
type EntryValues struct {
	DisplayName  string
	MimeType     string
	RelativePath string
	DateTaken    time.Time
	Width        int
	Height       int
}

// Stream is the write side of a pending entry.
type Stream interface {
	io.Writer
	io.Closer
	Sync() error
}

// Gallery is a media collection rooted at a directory.
type Gallery struct {
	root  string
	db    *database.Database
	lock  *flock.Flock
	retry filesystem.RetryConfig
}

// Open locks the gallery at root and prepares its staging directory. The
// catalog is owned by the caller and is not closed by Close.
func Open(root string, db *database.Database) (*Gallery, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve gallery root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(absRoot, StagingDir), 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	lock := flock.New(filepath.Join(absRoot, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire gallery lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	logging.Info("Gallery opened at %s", absRoot)
	return &Gallery{
		root:  absRoot,
		db:    db,
		lock:  lock,
		retry: filesystem.DefaultRetryConfig(),
	}, nil
}

// Close releases the gallery lock.
func (g *Gallery) Close() error {
	return g.lock.Unlock()
}

// Root returns the absolute gallery root.
func (g *Gallery) Root() string {
	return g.root
}

// Insert creates a pending entry in collection c and returns its id. The
// stored display name may differ from v.DisplayName when the name is already
// taken; use Get to read it back.
func (g *Gallery) Insert(ctx context.Context, c mediatypes.Collection, v EntryValues) (int64, error) {
	if _, err := mediatypes.ParseCollection(string(c)); err != nil {
		return 0, err
	}
	if err := validateName(v.DisplayName); err != nil {
		return 0, err
	}
	rel, err := CleanRelativePath(v.RelativePath)
	if err != nil {
		return 0, err
	}

	staged := uuid.NewString()
	if ext := mediatypes.ExtensionOf(v.DisplayName); ext != "" {
		staged += "." + ext
	}

	e := &database.Entry{
		Collection:   c,
		DisplayName:  v.DisplayName,
		MimeType:     v.MimeType,
		RelativePath: rel,
		DateTaken:    v.DateTaken,
		Width:        v.Width,
		Height:       v.Height,
		StagedName:   staged,
	}
	id, err := g.db.InsertEntry(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	logging.Debug("Gallery: pending entry %d %s/%s in %s", id, e.RelativePath, e.DisplayName, c)
	return id, nil
}

// OpenWriter creates the staging file of pending entry id.
func (g *Gallery) OpenWriter(ctx context.Context, id int64) (Stream, error) {
	e, err := g.db.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.Pending {
		return nil, database.ErrNotPending
	}

	f, err := filesystem.CreateExclusive(g.stagedPath(e), 0o644)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	return f, nil
}

// Publish makes pending entry id visible with the given size. The staged
// file is moved to its final location inside the catalog transaction, so a
// failure on either side leaves the entry pending.
func (g *Gallery) Publish(ctx context.Context, id, size int64) error {
	e, err := g.db.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if !e.Pending {
		return database.ErrNotPending
	}

	staged := g.stagedPath(e)
	final := g.finalPath(e)
	moved := false

	err = g.db.PublishEntry(ctx, id, size, func() error {
		if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
			return fmt.Errorf("create album directory: %w", err)
		}
		if _, err := filesystem.StatWithRetry(final, g.retry); err == nil {
			return fmt.Errorf("%s: %w", final, ErrExists)
		}
		if err := filesystem.Rename(staged, final); err != nil {
			return fmt.Errorf("move staged file: %w", err)
		}
		moved = true
		return nil
	})
	if err != nil && moved {
		// The catalog commit failed after the file moved.
		if rbErr := filesystem.Rename(final, staged); rbErr != nil {
			logging.Error("Gallery: failed to restore staged file for entry %d: %v", id, rbErr)
		}
	}
	if err != nil {
		return err
	}

	logging.Debug("Gallery: published entry %d (%d bytes) at %s", id, size, final)
	return nil
}

// Get returns entry id, pending or not.
func (g *Gallery) Get(ctx context.Context, id int64) (*database.Entry, error) {
	return g.db.GetEntry(ctx, id)
}

// List returns visible entries matching filter. filter.Pending is ignored.
func (g *Gallery) List(ctx context.Context, filter database.EntryFilter) ([]database.Entry, error) {
	filter.Pending = false
	return g.db.ListEntries(ctx, filter)
}

// ListPending returns every pending entry.
func (g *Gallery) ListPending(ctx context.Context) ([]database.Entry, error) {
	return g.db.ListEntries(ctx, database.EntryFilter{Pending: true})
}

// Remove deletes entry id and its file.
func (g *Gallery) Remove(ctx context.Context, id int64) error {
	e, err := g.db.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := filesystem.Remove(g.Path(e)); err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	return g.db.DeleteEntry(ctx, id)
}

// ExpiredPending returns pending entries created before cutoff.
func (g *Gallery) ExpiredPending(ctx context.Context, cutoff time.Time) ([]database.Entry, error) {
	return g.db.ExpiredPending(ctx, cutoff)
}

// RemoveOrphanedStaging deletes staging files that no pending entry refers
// to and that were last modified before cutoff. It returns how many files
// were removed.
func (g *Gallery) RemoveOrphanedStaging(ctx context.Context, cutoff time.Time) (int, error) {
	pending, err := g.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]bool, len(pending))
	for _, e := range pending {
		referenced[e.StagedName] = true
	}

	dir := filepath.Join(g.root, StagingDir)
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read staging directory: %w", err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || referenced[f.Name()] {
			continue
		}
		info, err := f.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := filesystem.Remove(filepath.Join(dir, f.Name())); err != nil {
			logging.Warn("Gallery: failed to remove orphaned staging file %s: %v", f.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}

// Path returns where the bytes of e live: the staging file while pending,
// the album file once published.
func (g *Gallery) Path(e *database.Entry) string {
	if e.Pending {
		return g.stagedPath(e)
	}
	return g.finalPath(e)
}

func (g *Gallery) stagedPath(e *database.Entry) string {
	return filepath.Join(g.root, StagingDir, e.StagedName)
}

func (g *Gallery) finalPath(e *database.Entry) string {
	return filepath.Join(g.root, filepath.FromSlash(e.RelativePath), e.DisplayName)
}

// GetStats reports per-collection counts for the metrics collector.
func (g *Gallery) GetStats(ctx context.Context) (metrics.Stats, error) {
	stats, err := g.db.GetStats(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}

	out := metrics.Stats{Collections: make(map[string]metrics.CollectionStats, len(stats))}
	for c, cs := range stats {
		out.Collections[string(c)] = metrics.CollectionStats{
			Visible: cs.Visible,
			Pending: cs.Pending,
			Bytes:   cs.Bytes,
		}
	}
	return out, nil
}

// URI returns the identifier of entry id in collection c.
func URI(c mediatypes.Collection, id int64) string {
	return uriScheme + string(c) + "/" + strconv.FormatInt(id, 10)
}

// ParseURI is the inverse of URI.
func ParseURI(uri string) (mediatypes.Collection, int64, error) {
	rest, ok := strings.CutPrefix(uri, uriScheme)
	if !ok {
		return "", 0, fmt.Errorf("not a gallery uri: %q", uri)
	}
	name, idStr, ok := strings.Cut(rest, "/")
	if !ok {
		return "", 0, fmt.Errorf("missing entry id: %q", uri)
	}
	c, err := mediatypes.ParseCollection(name)
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid entry id in %q", uri)
	}
	return c, id, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("invalid display name %q", name)
	}
	return nil
}

// CleanRelativePath returns the canonical slash-separated form of rel, the
// form stored in the catalog. It fails when rel is empty, leaves the root or
// names the staging area.
func CleanRelativePath(rel string) (string, error) {
	clean := path.Clean(filepath.ToSlash(rel))
	if rel == "" || !filepath.IsLocal(filepath.FromSlash(clean)) || strings.ContainsRune(rel, 0) {
		return "", fmt.Errorf("invalid relative path %q", rel)
	}
	if first, _, _ := strings.Cut(clean, "/"); first == StagingDir {
		return "", fmt.Errorf("relative path %q is reserved", rel)
	}
	return clean, nil
}
