package handlers

import (
	"net/http"
	"time"

	"gallery-ingest/internal/database"
	"gallery-ingest/internal/gallery"
	"gallery-ingest/internal/saver"
	"gallery-ingest/internal/sweeper"
)

type Handlers struct {
	saver     *saver.Saver
	gallery   *gallery.Gallery
	db        *database.Database
	sweeper   *sweeper.Sweeper
	results   http.Handler
	startTime time.Time
}

// New wires the handlers. results serves the result websocket; sw may be
// nil when sweeping is disabled.
func New(s *saver.Saver, g *gallery.Gallery, db *database.Database, sw *sweeper.Sweeper, results http.Handler) *Handlers {
	return &Handlers{
		saver:     s,
		gallery:   g,
		db:        db,
		sweeper:   sw,
		results:   results,
		startTime: time.Now(),
	}
}
