// Package middleware provides HTTP middleware for the gallery ingest service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with low-cardinality path labels
//
// Both response writer wrappers pass through http.Hijacker so the result
// websocket can be upgraded behind them.
package middleware
