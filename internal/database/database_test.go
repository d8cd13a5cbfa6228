package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gallery-ingest/internal/logging"
)

// setupTestDB creates a catalog in a temporary directory.
func setupTestDB(t testing.TB) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNewDatabase_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("first New() failed: %v", err)
	}
	if err := db.SetMetadata(context.Background(), "k", "v"); err != nil {
		t.Fatalf("SetMetadata() error = %v", err)
	}
	db.Close()

	db, err = New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("second New() failed: %v", err)
	}
	defer db.Close()

	got, err := db.GetMetadata(context.Background(), "k")
	if err != nil || got != "v" {
		t.Errorf("GetMetadata() after reopen = %q, %v", got, err)
	}
}

func TestNewDatabase_MissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "nested", "test.db")
	if _, err := New(context.Background(), dbPath); err == nil {
		t.Error("New() should fail when the parent directory does not exist")
	}
}

func TestMetadata(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetMetadata(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetMetadata(missing) error = %v, want sql.ErrNoRows", err)
	}

	if err := db.SetMetadata(ctx, "key", "one"); err != nil {
		t.Fatalf("SetMetadata() error = %v", err)
	}
	if err := db.SetMetadata(ctx, "key", "two"); err != nil {
		t.Fatalf("SetMetadata() overwrite error = %v", err)
	}
	if got, _ := db.GetMetadata(ctx, "key"); got != "two" {
		t.Errorf("GetMetadata() = %q, want %q", got, "two")
	}
}

func TestLastSweep(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetLastSweep(ctx)
	if err != nil {
		t.Fatalf("GetLastSweep() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("GetLastSweep() before any sweep = %v, want zero", got)
	}

	when := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	if err := db.SetLastSweep(ctx, when); err != nil {
		t.Fatalf("SetLastSweep() error = %v", err)
	}
	got, err = db.GetLastSweep(ctx)
	if err != nil {
		t.Fatalf("GetLastSweep() error = %v", err)
	}
	if !got.Equal(when) {
		t.Errorf("GetLastSweep() = %v, want %v", got, when)
	}

	if err := db.SetLastSweep(ctx, time.Time{}); err != nil {
		t.Fatalf("SetLastSweep(zero) error = %v", err)
	}
	if got, _ := db.GetLastSweep(ctx); !got.IsZero() {
		t.Errorf("GetLastSweep() after clear = %v, want zero", got)
	}
}

// captureLog collects log output at info level for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logging.GetLevel()
	logging.SetOutput(&buf)
	logging.SetLevel(logging.LevelInfo)
	t.Cleanup(func() {
		logging.SetLevel(prev)
		log.SetOutput(os.Stderr)
	})
	return &buf
}

func columnNames(t *testing.T, db *sql.DB) map[string]bool {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info('media_entries')")
	if err != nil {
		t.Fatalf("table info: %v", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatal(err)
		}
		names[name] = true
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	return names
}

func TestNewDatabase_FreshSchemaNeedsNoMigration(t *testing.T) {
	buf := captureLog(t)
	db := setupTestDB(t)

	cols := columnNames(t, db.db)
	for _, c := range []string{"width", "height"} {
		if !cols[c] {
			t.Errorf("column %s missing from fresh schema", c)
		}
	}
	if strings.Contains(buf.String(), "Migrating database") {
		t.Errorf("fresh catalog was migrated: %q", buf.String())
	}
}

func TestNewDatabase_MigratesDimensionColumns(t *testing.T) {
	buf := captureLog(t)
	dbPath := filepath.Join(t.TempDir(), "old.db")

	old, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_, err = old.Exec(`
		CREATE TABLE media_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			display_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			relative_path TEXT NOT NULL,
			date_taken INTEGER NOT NULL,
			is_pending INTEGER NOT NULL DEFAULT 1,
			size INTEGER NOT NULL DEFAULT 0,
			staged_name TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			published_at INTEGER
		);
		INSERT INTO media_entries (collection, display_name, mime_type, relative_path, date_taken,
			is_pending, size, staged_name, created_at, published_at)
		VALUES ('images', 'old.jpg', 'image/jpeg', 'DCIM/Test', 1, 0, 3, 'x.jpg', 1, 1);
	`)
	if err != nil {
		t.Fatalf("create old schema: %v", err)
	}
	old.Close()

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	cols := columnNames(t, db.db)
	if !cols["width"] || !cols["height"] {
		t.Fatalf("dimension columns not added: %v", cols)
	}
	for _, c := range []string{"width", "height"} {
		if !strings.Contains(buf.String(), "adding "+c+" column") {
			t.Errorf("no migration logged for %s: %q", c, buf.String())
		}
	}

	e, err := db.GetEntry(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if e.DisplayName != "old.jpg" || e.Width != 0 || e.Height != 0 {
		t.Errorf("migrated entry = %+v", e)
	}
}

func TestRecordQuery(t *testing.T) {
	start := time.Now()
	recordQuery("test_operation", start, nil)
	recordQuery("test_operation", start, errors.New("boom"))
}
