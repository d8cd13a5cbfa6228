// Command gallery-ingest runs the gallery ingest service.
//
// It accepts save requests over HTTP, copies each source file into the
// gallery one request at a time, and streams results back to subscribers
// of the request's callback target.
//
// # Architecture
//
//  1. Main HTTP server (PORT, default 8080):
//     - POST /api/save queues a save request (202 Accepted)
//     - GET /api/results?target=NAME streams results over a websocket
//     - GET /api/media, /api/media/pending, /api/media/{id} and
//     /api/media/{id}/file browse the gallery
//     - /health, /livez, /readyz and /version
//
//  2. Metrics server (METRICS_PORT, default 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// Background components are the serial save queue, the result loop that
// delivers encoded results, the pending sweeper and the metrics collector.
//
// See package startup for the supported environment variables.
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the service:
//
//  1. Stops accepting HTTP requests
//  2. Drains the save queue
//  3. Delivers the remaining results and closes websocket subscribers
//  4. Stops the sweeper and metrics collector
//  5. Shuts down the metrics server
//  6. Releases the gallery lock and closes the database
//
// Every step shares a 30 second timeout.
package main
