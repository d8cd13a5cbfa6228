// Package handlers provides HTTP request handlers for the gallery ingest API.
//
// It includes handlers for:
//   - Queueing save requests
//   - Listing published and pending gallery entries
//   - Serving published files
//   - Streaming save results over a websocket
//   - Health, readiness and version endpoints
package handlers
