package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"gallery-ingest/internal/database"
	"gallery-ingest/internal/dispatch"
	"gallery-ingest/internal/gallery"
	"gallery-ingest/internal/ingest"
	"gallery-ingest/internal/media"
	"gallery-ingest/internal/saver"
	"gallery-ingest/internal/workers"

	"golang.org/x/term"
)

const (
	defaultGalleryDir  = "/gallery"
	defaultDatabaseDir = "/database"
	defaultAPILevel    = 33

	callbackTarget = "gallery-save"
	callbackMethod = "OnMediaSaved"

	// shutdownWait bounds how long an interrupted run waits for the store in
	// progress before closing the gallery.
	shutdownWait = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, term.IsTerminal(int(os.Stdout.Fd())))
	stop()
	os.Exit(code)
}

// run saves one file and reports the result. Human readable output is used
// when stdout is a terminal; otherwise the encoded result line is printed.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, human bool) int {
	if len(args) != 3 {
		printUsage(stderr)
		return 2
	}
	source, album, name := args[0], args[1], args[2]

	galleryDir := getEnv("GALLERY_DIR", defaultGalleryDir)
	databaseDir := getEnv("DATABASE_DIR", defaultDatabaseDir)

	apiLevel := defaultAPILevel
	if v := os.Getenv("API_LEVEL"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid API_LEVEL %q\n", v)
			return 2
		}
		apiLevel = parsed
	}

	db, err := database.New(ctx, filepath.Join(databaseDir, "gallery.db"))
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	g, err := gallery.Open(galleryDir, db)
	if errors.Is(err, gallery.ErrLocked) {
		fmt.Fprintf(stderr, "Error: gallery %s is in use by another process (is the service running?)\n", galleryDir)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to open gallery: %v\n", err)
		return 1
	}
	defer g.Close()

	payload, ok := save(ctx, stderr, g, apiLevel, source, album, name)
	if !ok {
		fmt.Fprintln(stderr, "Interrupted before the save finished")
		return 1
	}

	result, err := dispatch.Decode(payload)
	if err != nil {
		fmt.Fprintf(stderr, "Error: malformed result %q: %v\n", payload, err)
		return 1
	}

	if human {
		printResult(stdout, result)
	} else {
		fmt.Fprintln(stdout, payload)
	}

	if !result.Success {
		return 1
	}
	return 0
}

// save runs one request through the same queue and dispatcher as the
// service, with this goroutine acting as the callback context. It returns
// false when ctx ends before a result arrives. Either way the queue is
// drained before save returns, so g is never closed under a running store.
func save(ctx context.Context, stderr io.Writer, g *gallery.Gallery, apiLevel int, source, album, name string) (string, bool) {
	loop := dispatch.NewLoop()
	registry := dispatch.NewRegistry()

	var payload string
	received := false
	registry.Register(callbackTarget, func(_, p string) {
		payload, received = p, true
		loop.Close()
	})

	s := saver.New(
		workers.NewSerial("gallery-save"),
		ingest.NewWriter(g, media.ProbeDimensions),
		dispatch.NewDispatcher(loop, registry),
		apiLevel,
	)
	s.SaveMediaToGallery(source, album, name, callbackTarget, callbackMethod, 1)

	loop.Run(ctx)

	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := s.Shutdown(waitCtx); err != nil {
		fmt.Fprintf(stderr, "Warning: save still running after %s: %v\n", shutdownWait, err)
	}
	return payload, received
}

func printResult(w io.Writer, r ingest.SaveResult) {
	if r.Success {
		fmt.Fprintf(w, "Saved: %s\n", r.ResultPath)
		return
	}
	fmt.Fprintf(w, "Save failed: %s\n", r.Message)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Gallery Save")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: gallery-save <file> <album> <name>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Copies <file> into DCIM/<album> as <name> plus the file's extension.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  GALLERY_DIR  - Gallery root (default: %s)\n", defaultGalleryDir)
	fmt.Fprintf(w, "  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
	fmt.Fprintf(w, "  API_LEVEL    - Platform API level (default: %d)\n", defaultAPILevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
