package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"gallery-ingest/internal/mediatypes"
)

var (
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("entry not found")
	// ErrNotPending is returned when publishing an entry that is already visible.
	ErrNotPending = errors.New("entry is not pending")
)

// maxNameAttempts bounds the " (n)" suffix search in InsertEntry.
const maxNameAttempts = 1000

const entryColumns = `id, collection, display_name, mime_type, relative_path, date_taken,
	is_pending, size, width, height, staged_name, created_at, published_at`

// InsertEntry adds a pending entry and returns its id. If the display name is
// taken in the same collection and relative path, " (1)", " (2)", ... is
// inserted before the extension and e.DisplayName is updated to the name
// actually stored.
func (d *Database) InsertEntry(ctx context.Context, e *Entry) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("insert_entry", start, err) }()

	if e.StagedName == "" {
		return 0, errors.New("staged name is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	base := e.DisplayName
	for n := 0; n < maxNameAttempts; n++ {
		name := numberedName(base, n)
		result, execErr := d.db.ExecContext(ctx, `
			INSERT INTO media_entries (collection, display_name, mime_type, relative_path, date_taken,
				is_pending, size, width, height, staged_name, created_at)
			VALUES (?, ?, ?, ?, ?, 1, 0, ?, ?, ?, ?)
		`, string(e.Collection), name, e.MimeType, e.RelativePath, e.DateTaken.UnixMilli(),
			e.Width, e.Height, e.StagedName, e.CreatedAt.UnixMilli())

		if isUniqueViolation(execErr) {
			continue
		}
		if execErr != nil {
			return 0, execErr
		}

		id, err = result.LastInsertId()
		if err != nil {
			return 0, err
		}
		e.ID = id
		e.DisplayName = name
		e.Pending = true
		return id, nil
	}

	return 0, fmt.Errorf("no free display name for %q after %d attempts", base, maxNameAttempts)
}

// numberedName returns name for n == 0 and "stem (n).ext" otherwise.
func numberedName(name string, n int) string {
	if n == 0 {
		return name
	}
	stem, ext := name, ""
	if dot := strings.LastIndexByte(name, '.'); dot > 0 && dot < len(name)-1 {
		stem, ext = name[:dot], name[dot:]
	}
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// PublishEntry clears the pending flag of entry id and records its final
// size. commit runs inside the transaction after the row is updated; if it
// fails the row stays pending.
func (d *Database) PublishEntry(ctx context.Context, id, size int64, commit func() error) (err error) {
	start := time.Now()
	defer func() { recordQuery("publish_entry", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE media_entries
			SET is_pending = 0, size = ?, published_at = ?
			WHERE id = ? AND is_pending = 1
		`, size, time.Now().UnixMilli(), id)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) > 0 FROM media_entries WHERE id = ?", id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrNotPending
		}

		if commit != nil {
			return commit()
		}
		return nil
	})
}

// GetEntry returns the entry with the given id, pending or not.
func (d *Database) GetEntry(ctx context.Context, id int64) (e *Entry, err error) {
	start := time.Now()
	defer func() { recordQuery("get_entry", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM media_entries WHERE id = ?", id)
	e, err = scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ListEntries returns entries matching filter, newest first.
func (d *Database) ListEntries(ctx context.Context, filter EntryFilter) (entries []Entry, err error) {
	start := time.Now()
	defer func() { recordQuery("list_entries", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := "SELECT " + entryColumns + " FROM media_entries WHERE is_pending = ?"
	args := []interface{}{boolToInt(filter.Pending)}

	if filter.Collection != "" {
		query += " AND collection = ?"
		args = append(args, string(filter.Collection))
	}
	if filter.RelativePath != "" {
		query += " AND relative_path = ?"
		args = append(args, filter.RelativePath)
	}
	query += " ORDER BY date_taken DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	return d.queryEntries(ctx, query, args...)
}

// ExpiredPending returns pending entries created before cutoff.
func (d *Database) ExpiredPending(ctx context.Context, cutoff time.Time) (entries []Entry, err error) {
	start := time.Now()
	defer func() { recordQuery("expired_pending", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.queryEntries(ctx,
		"SELECT "+entryColumns+" FROM media_entries WHERE is_pending = 1 AND created_at < ? ORDER BY id",
		cutoff.UnixMilli())
}

// DeleteEntry removes the row for id.
func (d *Database) DeleteEntry(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_entry", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM media_entries WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStats returns per-collection counts. Bytes only counts visible entries.
func (d *Database) GetStats(ctx context.Context) (stats map[mediatypes.Collection]CollectionStats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT collection, is_pending, COUNT(*), COALESCE(SUM(size), 0)
		FROM media_entries
		GROUP BY collection, is_pending
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats = map[mediatypes.Collection]CollectionStats{
		mediatypes.CollectionImages: {},
		mediatypes.CollectionVideos: {},
	}
	for rows.Next() {
		var collection string
		var pending, count int
		var bytes int64
		if err := rows.Scan(&collection, &pending, &count, &bytes); err != nil {
			return nil, err
		}
		cs := stats[mediatypes.Collection(collection)]
		if pending == 1 {
			cs.Pending += count
		} else {
			cs.Visible += count
			cs.Bytes += bytes
		}
		stats[mediatypes.Collection(collection)] = cs
	}
	return stats, rows.Err()
}

func (d *Database) queryEntries(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var collection string
	var dateTaken, createdAt int64
	var pending int
	var publishedAt sql.NullInt64

	err := row.Scan(&e.ID, &collection, &e.DisplayName, &e.MimeType, &e.RelativePath, &dateTaken,
		&pending, &e.Size, &e.Width, &e.Height, &e.StagedName, &createdAt, &publishedAt)
	if err != nil {
		return nil, err
	}

	e.Collection = mediatypes.Collection(collection)
	e.DateTaken = time.UnixMilli(dateTaken)
	e.CreatedAt = time.UnixMilli(createdAt)
	e.Pending = pending == 1
	if publishedAt.Valid {
		e.PublishedAt = time.UnixMilli(publishedAt.Int64)
	}
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
