package metrics

import (
	"context"
	"time"

	"gallery-ingest/internal/logging"
)

// StatsProvider supplies the gallery counts published by the Collector.
type StatsProvider interface {
	GetStats(ctx context.Context) (Stats, error)
}

// CollectionStats holds counts for one gallery collection.
type CollectionStats struct {
	Visible int
	Pending int
	Bytes   int64
}

// Stats holds the current gallery statistics keyed by collection name.
type Stats struct {
	Collections map[string]CollectionStats
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.statsProvider.GetStats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	for name, cs := range stats.Collections {
		GalleryEntriesTotal.WithLabelValues(name, "visible").Set(float64(cs.Visible))
		GalleryEntriesTotal.WithLabelValues(name, "pending").Set(float64(cs.Pending))
		GalleryBytesTotal.WithLabelValues(name).Set(float64(cs.Bytes))
		logging.Debug("Metrics collected: %s visible=%d pending=%d bytes=%d", name, cs.Visible, cs.Pending, cs.Bytes)
	}
}
