package gallery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gallery-ingest/internal/database"
	"gallery-ingest/internal/mediatypes"
)

func setupTestGallery(t *testing.T) *Gallery {
	t.Helper()

	dir := t.TempDir()
	db, err := database.New(context.Background(), filepath.Join(dir, "gallery.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	g, err := Open(filepath.Join(dir, "root"), db)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func jpegValues(name string) EntryValues {
	return EntryValues{
		DisplayName:  name,
		MimeType:     "image/jpeg",
		RelativePath: "DCIM/Test",
		DateTaken:    time.Now(),
	}
}

func writeEntry(t *testing.T, g *Gallery, id int64, data string) {
	t.Helper()
	w, err := g.OpenWriter(context.Background(), id)
	if err != nil {
		t.Fatalf("OpenWriter() error = %v", err)
	}
	if _, err := w.Write([]byte(data)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestOpen_Locked(t *testing.T) {
	g := setupTestGallery(t)

	if _, err := Open(g.Root(), nil); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Open() error = %v, want ErrLocked", err)
	}

	if err := g.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	again, err := Open(g.Root(), nil)
	if err != nil {
		t.Fatalf("Open() after Close error = %v", err)
	}
	again.Close()
}

func TestInsertWritePublish(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	id, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	writeEntry(t, g, id, "jpeg bytes")

	e, err := g.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	staged := g.Path(e)
	if filepath.Dir(staged) != filepath.Join(g.Root(), StagingDir) {
		t.Errorf("pending bytes at %s, want inside staging dir", staged)
	}
	if visible, _ := g.List(ctx, database.EntryFilter{Pending: true}); len(visible) != 0 {
		t.Errorf("List() returned pending entries: %+v", visible)
	}
	if pending, _ := g.ListPending(ctx); len(pending) != 1 {
		t.Errorf("ListPending() = %d entries, want 1", len(pending))
	}

	if err := g.Publish(ctx, id, 10); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	e, err = g.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	final := filepath.Join(g.Root(), "DCIM", "Test", "img.jpg")
	if g.Path(e) != final {
		t.Errorf("Path() = %s, want %s", g.Path(e), final)
	}
	data, err := os.ReadFile(final)
	if err != nil || string(data) != "jpeg bytes" {
		t.Errorf("final file = %q, %v", data, err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Errorf("staged file still present: %v", err)
	}

	visible, err := g.List(ctx, database.EntryFilter{Collection: mediatypes.CollectionImages})
	if err != nil || len(visible) != 1 || visible[0].Size != 10 {
		t.Errorf("List() = %+v, %v", visible, err)
	}

	if err := g.Publish(ctx, id, 10); !errors.Is(err, database.ErrNotPending) {
		t.Errorf("second Publish() error = %v, want ErrNotPending", err)
	}
	if _, err := g.OpenWriter(ctx, id); !errors.Is(err, database.ErrNotPending) {
		t.Errorf("OpenWriter() on visible entry error = %v, want ErrNotPending", err)
	}
}

func TestPublish_MissingStagedFileStaysPending(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	id, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := g.Publish(ctx, id, 0); err == nil {
		t.Fatal("Publish() without staged bytes should fail")
	}
	e, err := g.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !e.Pending {
		t.Error("entry should stay pending after failed publish")
	}
}

func TestPublish_DestinationExists(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	id, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	writeEntry(t, g, id, "new")

	dir := filepath.Join(g.Root(), "DCIM", "Test")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "img.jpg"), []byte("foreign"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := g.Publish(ctx, id, 3); !errors.Is(err, ErrExists) {
		t.Fatalf("Publish() error = %v, want ErrExists", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "img.jpg"))
	if string(data) != "foreign" {
		t.Errorf("existing file overwritten: %q", data)
	}
}

func TestInsert_Dedup(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	first, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatal(err)
	}

	e1, _ := g.Get(ctx, first)
	e2, _ := g.Get(ctx, second)
	if e1.DisplayName != "img.jpg" || e2.DisplayName != "img (1).jpg" {
		t.Errorf("display names = %q, %q", e1.DisplayName, e2.DisplayName)
	}
	if e1.StagedName == e2.StagedName {
		t.Error("staged names must be unique")
	}
}

func TestInsert_Validation(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		collection mediatypes.Collection
		values     EntryValues
	}{
		{"unknown collection", "audio", jpegValues("img.jpg")},
		{"empty name", mediatypes.CollectionImages, jpegValues("")},
		{"name with separator", mediatypes.CollectionImages, jpegValues("a/b.jpg")},
		{"escaping path", mediatypes.CollectionImages, EntryValues{DisplayName: "a.jpg", RelativePath: "../outside"}},
		{"absolute path", mediatypes.CollectionImages, EntryValues{DisplayName: "a.jpg", RelativePath: "/etc"}},
		{"staging path", mediatypes.CollectionImages, EntryValues{DisplayName: "a.jpg", RelativePath: ".pending/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Insert(ctx, tt.collection, tt.values); err == nil {
				t.Error("Insert() should fail")
			}
		})
	}
}

func TestCleanRelativePath(t *testing.T) {
	tests := []struct {
		rel     string
		want    string
		wantErr bool
	}{
		{rel: "DCIM/Test", want: "DCIM/Test"},
		{rel: "DCIM/Test/", want: "DCIM/Test"},
		{rel: "DCIM//Test//", want: "DCIM/Test"},
		{rel: "DCIM/./Test", want: "DCIM/Test"},
		{rel: "DCIM/A/../B", want: "DCIM/B"},
		{rel: "", wantErr: true},
		{rel: "..", wantErr: true},
		{rel: "DCIM/../../x", wantErr: true},
		{rel: "/DCIM", wantErr: true},
		{rel: ".pending", wantErr: true},
		{rel: "x/../.pending/y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, err := CleanRelativePath(tt.rel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CleanRelativePath(%q) error = %v, wantErr %v", tt.rel, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CleanRelativePath(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestInsert_StoresCleanRelativePath(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	first, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	v := jpegValues("img.jpg")
	v.RelativePath = "DCIM/Test//"
	second, err := g.Insert(ctx, mediatypes.CollectionImages, v)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	a, err := g.Get(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Get(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if b.RelativePath != "DCIM/Test" {
		t.Errorf("RelativePath = %q, want DCIM/Test", b.RelativePath)
	}
	if a.DisplayName == b.DisplayName {
		t.Errorf("both entries named %q in the same album", a.DisplayName)
	}
}

func TestRemove(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	id, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	writeEntry(t, g, id, "x")
	e, _ := g.Get(ctx, id)
	staged := g.Path(e)

	if err := g.Remove(ctx, id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Errorf("staged file not removed: %v", err)
	}
	if _, err := g.Get(ctx, id); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Get() after Remove error = %v, want ErrNotFound", err)
	}
}

func TestGetStats(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	id, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	writeEntry(t, g, id, "abc")
	if err := g.Publish(ctx, id, 3); err != nil {
		t.Fatal(err)
	}

	stats, err := g.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	images := stats.Collections["images"]
	if images.Visible != 1 || images.Bytes != 3 {
		t.Errorf("images = %+v", images)
	}
	if _, ok := stats.Collections["videos"]; !ok {
		t.Error("videos collection missing from stats")
	}
}

func TestURI(t *testing.T) {
	uri := URI(mediatypes.CollectionVideos, 42)
	if uri != "gallery://videos/42" {
		t.Errorf("URI() = %q", uri)
	}

	c, id, err := ParseURI(uri)
	if err != nil || c != mediatypes.CollectionVideos || id != 42 {
		t.Errorf("ParseURI(%q) = %q, %d, %v", uri, c, id, err)
	}

	for _, bad := range []string{"", "file:///x", "gallery://videos", "gallery://audio/1", "gallery://images/x", "gallery://images/0"} {
		if _, _, err := ParseURI(bad); err == nil {
			t.Errorf("ParseURI(%q) should fail", bad)
		}
	}
}

func TestRemoveOrphanedStaging(t *testing.T) {
	g := setupTestGallery(t)
	ctx := context.Background()

	id, err := g.Insert(ctx, mediatypes.CollectionImages, jpegValues("img.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	writeEntry(t, g, id, "kept")
	e, _ := g.Get(ctx, id)

	staging := filepath.Join(g.Root(), StagingDir)
	old := time.Now().Add(-48 * time.Hour)
	for _, name := range []string{"orphan-old.jpg", "orphan-new.jpg"} {
		if err := os.WriteFile(filepath.Join(staging, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Chtimes(filepath.Join(staging, "orphan-old.jpg"), old, old); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(g.Path(e), old, old); err != nil {
		t.Fatal(err)
	}

	removed, err := g.RemoveOrphanedStaging(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("RemoveOrphanedStaging() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(filepath.Join(staging, "orphan-old.jpg")); !os.IsNotExist(err) {
		t.Error("old orphan not removed")
	}
	if _, err := os.Stat(filepath.Join(staging, "orphan-new.jpg")); err != nil {
		t.Error("recent orphan removed")
	}
	if _, err := os.Stat(g.Path(e)); err != nil {
		t.Error("staging file of a pending entry removed")
	}
}
