// Package metrics provides Prometheus instrumentation for the gallery ingest
// service. All metrics are prefixed with "gallery_ingest_".
//
// # Metric Categories
//
// ## Save Pipeline
//
//   - SavesTotal: requests by media kind and outcome ("success" or error kind)
//   - SaveDuration: dequeue-to-result latency by media kind
//   - BytesCopied: bytes streamed into each collection
//   - QueueDepth, WorkerBusy, WorkerRestarts, WorkerPanics: serial worker state
//   - CallbacksTotal: result deliveries by outcome
//
// ## Gallery
//
//   - GalleryEntriesTotal: entries by collection and state (visible/pending)
//   - GalleryBytesTotal: stored bytes of visible entries
//   - SweeperRemovedTotal, SweeperLastRunTimestamp: pending entry expiry
//
// ## Catalog, Filesystem, HTTP
//
// DB*, Filesystem* and HTTP* metrics mirror the operations of the database,
// filesystem and middleware packages. The filesystem package reports through
// the Observer returned by NewFilesystemObserver so that it does not import
// this package.
//
// Collector refreshes the gallery gauges on an interval from a StatsProvider.
// InitializeMetrics pre-creates label combinations so dashboards see zeros
// before the first event.
package metrics
