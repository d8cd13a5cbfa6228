package saver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gallery-ingest/internal/database"
	"gallery-ingest/internal/dispatch"
	"gallery-ingest/internal/gallery"
	"gallery-ingest/internal/ingest"
	"gallery-ingest/internal/mediatypes"
	"gallery-ingest/internal/workers"
)

const (
	testTimeout = 5 * time.Second
	target      = "GalleryReceiver"
	method      = "OnMediaSaved"
)

// harness wires a Saver to a real gallery and collects decoded results.
type harness struct {
	saver   *Saver
	gallery *gallery.Gallery
	results chan ingest.SaveResult
}

func newHarness(t *testing.T, store func(*gallery.Gallery) Store, apiLevel int) *harness {
	t.Helper()

	dir := t.TempDir()
	db, err := database.New(context.Background(), filepath.Join(dir, "gallery.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	g, err := gallery.Open(filepath.Join(dir, "gallery"), db)
	if err != nil {
		t.Fatalf("gallery.Open() error = %v", err)
	}
	t.Cleanup(func() { g.Close() })

	h := &harness{gallery: g, results: make(chan ingest.SaveResult, 100)}

	registry := dispatch.NewRegistry()
	registry.Register(target, func(m, payload string) {
		if m != method {
			t.Errorf("callback method = %q, want %q", m, method)
		}
		r, err := dispatch.Decode(payload)
		if err != nil {
			t.Errorf("Decode(%q) error = %v", payload, err)
			return
		}
		h.results <- r
	})

	loop := dispatch.NewLoop()
	go loop.Run(context.Background())
	t.Cleanup(func() {
		loop.Close()
		<-loop.Done()
	})

	var s Store = ingest.NewWriter(g, nil)
	if store != nil {
		s = store(g)
	}

	queue := workers.NewSerial("saver-test")
	h.saver = New(queue, s, dispatch.NewDispatcher(loop, registry), apiLevel)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		h.saver.Shutdown(ctx)
	})
	return h
}

func (h *harness) next(t *testing.T) ingest.SaveResult {
	t.Helper()
	select {
	case r := <-h.results:
		return r
	case <-time.After(testTimeout):
		t.Fatal("no result delivered")
		return ingest.SaveResult{}
	}
}

func (h *harness) entries(t *testing.T) (visible, pending []database.Entry) {
	t.Helper()
	ctx := context.Background()
	visible, err := h.gallery.List(ctx, database.EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	pending, err = h.gallery.ListPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return visible, pending
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSave_Success(t *testing.T) {
	h := newHarness(t, nil, 33)
	src := writeFile(t, "capture.jpg", 12345)

	h.saver.SaveMediaToGallery(src, "Test", "img", target, method, 1)
	r := h.next(t)

	if !r.Success || r.RequestID != 1 || r.Message != "Success" {
		t.Fatalf("result = %+v", r)
	}
	if r.ResultPath == "" {
		t.Fatal("empty result path")
	}

	c, id, err := gallery.ParseURI(r.ResultPath)
	if err != nil || c != mediatypes.CollectionImages {
		t.Fatalf("ParseURI(%q) = %q, %v", r.ResultPath, c, err)
	}
	e, err := h.gallery.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if e.Pending || e.DisplayName != "img.jpg" || e.RelativePath != "DCIM/Test" || e.Size != 12345 {
		t.Errorf("entry = %+v", e)
	}
}

func TestSave_VideoUsesVideoCollection(t *testing.T) {
	h := newHarness(t, nil, 33)
	src := writeFile(t, "clip.MOV", 10)

	h.saver.SaveMediaToGallery(src, "Clips", "holiday", target, method, 2)
	r := h.next(t)
	if !r.Success || !strings.HasPrefix(r.ResultPath, "gallery://videos/") {
		t.Fatalf("result = %+v", r)
	}

	visible, _ := h.entries(t)
	if len(visible) != 1 || visible[0].DisplayName != "holiday.mov" || visible[0].MimeType != "video/quicktime" {
		t.Errorf("visible = %+v", visible)
	}
}

func TestSave_SourceNotFound(t *testing.T) {
	h := newHarness(t, nil, 33)

	h.saver.SaveMediaToGallery(filepath.Join(t.TempDir(), "gone.jpg"), "Test", "img", target, method, 3)
	r := h.next(t)

	if r.Success || r.Message != "File not found" || r.ResultPath != "" {
		t.Errorf("result = %+v", r)
	}
	visible, pending := h.entries(t)
	if len(visible)+len(pending) != 0 {
		t.Errorf("collection touched: visible %d, pending %d", len(visible), len(pending))
	}
}

// recordingStore counts calls and never succeeds.
type recordingStore struct {
	mu    sync.Mutex
	calls int
}

func (s *recordingStore) Store(context.Context, string, mediatypes.Kind, string, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return "", errors.New("unexpected store")
}

func TestSave_UnsupportedPlatform(t *testing.T) {
	rec := &recordingStore{}
	h := newHarness(t, func(*gallery.Gallery) Store { return rec }, 28)

	// The source does not exist: the platform check must win without any stat.
	h.saver.SaveMediaToGallery("/nonexistent/file.jpg", "Test", "img", target, method, 4)
	r := h.next(t)

	if r.Success || r.Message != "API 29+ Required" {
		t.Errorf("result = %+v", r)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.calls != 0 {
		t.Errorf("store called %d times, want 0", rec.calls)
	}
}

func TestSave_UnsupportedType(t *testing.T) {
	h := newHarness(t, nil, 33)

	h.saver.SaveMediaToGallery(writeFile(t, "notes.TXT", 5), "Test", "notes", target, method, 5)
	if r := h.next(t); r.Success || r.Message != "Unsupported file type: txt" {
		t.Errorf("result = %+v", r)
	}

	h.saver.SaveMediaToGallery(writeFile(t, "noext", 5), "Test", "noext", target, method, 6)
	if r := h.next(t); r.Success || r.Message != "Unsupported file type: " {
		t.Errorf("result = %+v", r)
	}

	visible, pending := h.entries(t)
	if len(visible)+len(pending) != 0 {
		t.Error("unsupported files reached the collection")
	}
}

func TestSave_FIFO(t *testing.T) {
	h := newHarness(t, nil, 33)

	const n = 25
	for i := 0; i < n; i++ {
		src := writeFile(t, fmt.Sprintf("frame%02d.png", i), 1000)
		h.saver.SaveMediaToGallery(src, "Burst", fmt.Sprintf("frame%02d", i), target, method, i)
	}

	for i := 0; i < n; i++ {
		r := h.next(t)
		if r.RequestID != i {
			t.Fatalf("result %d has request id %d, results out of submission order", i, r.RequestID)
		}
		if !r.Success {
			t.Errorf("request %d failed: %s", i, r.Message)
		}
	}

	visible, _ := h.entries(t)
	if len(visible) != n {
		t.Errorf("visible entries = %d, want %d", len(visible), n)
	}
}

// brokenGallery fails every write after limit bytes.
type brokenGallery struct {
	*gallery.Gallery
	limit int
}

type brokenStream struct {
	gallery.Stream
	remaining int
}

func (s *brokenStream) Write(p []byte) (int, error) {
	if len(p) > s.remaining {
		return 0, errors.New("simulated I/O failure")
	}
	s.remaining -= len(p)
	return s.Stream.Write(p)
}

func (g *brokenGallery) OpenWriter(ctx context.Context, id int64) (gallery.Stream, error) {
	st, err := g.Gallery.OpenWriter(ctx, id)
	if err != nil {
		return nil, err
	}
	return &brokenStream{Stream: st, remaining: g.limit}, nil
}

func TestSave_MidCopyFailure(t *testing.T) {
	h := newHarness(t, func(g *gallery.Gallery) Store {
		return ingest.NewWriter(&brokenGallery{Gallery: g, limit: 16 * 1024}, nil)
	}, 33)

	h.saver.SaveMediaToGallery(writeFile(t, "big.mp4", 100_000), "Test", "big", target, method, 7)
	r := h.next(t)

	if r.Success || !strings.HasPrefix(r.Message, "Copy failed") {
		t.Errorf("result = %+v", r)
	}
	visible, pending := h.entries(t)
	if len(visible) != 0 {
		t.Errorf("partially copied entry is visible: %+v", visible)
	}
	if len(pending) != 1 {
		t.Errorf("pending entries = %d, want 1", len(pending))
	}
}

type panickingStore struct{}

func (panickingStore) Store(context.Context, string, mediatypes.Kind, string, string) (string, error) {
	panic("collection exploded")
}

func TestSave_PanicBecomesResult(t *testing.T) {
	h := newHarness(t, func(*gallery.Gallery) Store { return panickingStore{} }, 33)

	h.saver.SaveMediaToGallery(writeFile(t, "a.jpg", 1), "Test", "a", target, method, 8)
	h.saver.SaveMediaToGallery(writeFile(t, "b.jpg", 1), "Test", "b", target, method, 9)

	for _, id := range []int{8, 9} {
		r := h.next(t)
		if r.RequestID != id || r.Success || !strings.Contains(r.Message, "collection exploded") {
			t.Errorf("result = %+v", r)
		}
	}
}

func TestProcess_Synchronous(t *testing.T) {
	h := newHarness(t, nil, 33)
	src := writeFile(t, "pic.webp", 64)

	r := h.saver.Process(context.Background(), ingest.SaveRequest{
		SourcePath:   src,
		AlbumName:    "Direct",
		FileBaseName: "pic",
		RequestID:    10,
	})
	if !r.Success {
		t.Fatalf("Process() = %+v", r)
	}
	select {
	case extra := <-h.results:
		t.Errorf("Process delivered a callback: %+v", extra)
	default:
	}
}
