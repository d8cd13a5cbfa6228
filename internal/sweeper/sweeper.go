package sweeper

import (
	"context"
	"sync"
	"time"

	"gallery-ingest/internal/database"
	"gallery-ingest/internal/gallery"
	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/metrics"
)

// sweepTimeout bounds a single sweep.
const sweepTimeout = 5 * time.Minute

// Sweeper periodically removes expired pending entries.
type Sweeper struct {
	gallery  *gallery.Gallery
	db       *database.Database
	ttl      time.Duration
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu          sync.Mutex
	sweeping    bool
	lastRun     time.Time
	lastRemoved int
	lastError   error
}

// Status describes the sweeper for health endpoints.
type Status struct {
	TTL         string    `json:"ttl"`
	Interval    string    `json:"interval"`
	Sweeping    bool      `json:"sweeping"`
	LastRun     time.Time `json:"lastRun,omitempty"`
	LastRemoved int       `json:"lastRemoved"`
	LastError   string    `json:"lastError,omitempty"`
}

// New creates a Sweeper. db stores the time of the last sweep.
func New(g *gallery.Gallery, db *database.Database, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{
		gallery:  g,
		db:       db,
		ttl:      ttl,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins periodic sweeping in the background.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop stops sweeping and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	first := s.untilDue()
	logging.Info("Pending sweeper started (ttl: %v, interval: %v, first run in %v)", s.ttl, s.interval, first.Round(time.Second))

	timer := time.NewTimer(first)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if _, err := s.Sweep(ctx); err != nil {
				logging.Error("Pending sweep failed: %v", err)
			}
			cancel()
			timer.Reset(s.interval)
		case <-s.stopChan:
			logging.Info("Pending sweeper stopped")
			return
		}
	}
}

// untilDue returns how long to wait before the first sweep.
func (s *Sweeper) untilDue() time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	last, err := s.db.GetLastSweep(ctx)
	if err != nil {
		logging.Warn("Could not read last sweep time: %v", err)
		return 0
	}
	if last.IsZero() {
		return 0
	}
	if wait := s.interval - time.Since(last); wait > 0 {
		return wait
	}
	return 0
}

// Sweep removes pending entries older than the TTL and orphaned staging
// files. It returns the number of entries and files removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return 0, nil
	}
	s.sweeping = true
	s.mu.Unlock()

	start := time.Now()
	removed, err := s.sweep(ctx, start.Add(-s.ttl))

	s.mu.Lock()
	s.sweeping = false
	s.lastRun = start
	s.lastRemoved = removed
	s.lastError = err
	s.mu.Unlock()

	metrics.SweeperRemovedTotal.Add(float64(removed))
	metrics.SweeperLastRunTimestamp.Set(float64(start.Unix()))
	if setErr := s.db.SetLastSweep(ctx, start); setErr != nil {
		logging.Warn("Could not record sweep time: %v", setErr)
	}

	logging.Info("Pending sweep removed %d item(s) in %v", removed, time.Since(start).Round(time.Millisecond))
	return removed, err
}

func (s *Sweeper) sweep(ctx context.Context, cutoff time.Time) (int, error) {
	expired, err := s.gallery.ExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range expired {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.gallery.Remove(ctx, e.ID); err != nil {
			logging.Warn("Failed to remove expired pending entry %d: %v", e.ID, err)
			continue
		}
		logging.Debug("Removed expired pending entry %d (%s/%s)", e.ID, e.RelativePath, e.DisplayName)
		removed++
	}

	orphans, err := s.gallery.RemoveOrphanedStaging(ctx, cutoff)
	return removed + orphans, err
}

// Status returns the current sweeper state.
func (s *Sweeper) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		TTL:         s.ttl.String(),
		Interval:    s.interval.String(),
		Sweeping:    s.sweeping,
		LastRun:     s.lastRun,
		LastRemoved: s.lastRemoved,
	}
	if s.lastError != nil {
		status.LastError = s.lastError.Error()
	}
	return status
}
