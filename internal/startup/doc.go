// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - GALLERY_DIR: Gallery root holding published files and the staging area (default: /gallery)
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - API_LEVEL: Platform API level reported to the saver (default: 33)
//   - PENDING_TTL: Age after which pending entries are swept, as Go duration (default: 168h)
//   - SWEEP_INTERVAL: Sweeper period as Go duration (default: 1h)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Invalid booleans, integers and durations fall back to their defaults with a
// warning. A non-positive API_LEVEL is rejected.
//
// # Directory Setup
//
// Both the gallery and the database directory are created when missing and
// must be writable.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogGalleryInit]: Gallery lock and leftover pending entries
//   - [LogSweeperInit]: Sweeper TTL and interval
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
