// Package logging provides the leveled logger used across the gallery ingest
// service.
//
// Levels, lowest first:
//   - DEBUG: per-request pipeline detail (chunk counts, entry handles)
//   - INFO: lifecycle and successful saves
//   - WARN: recoverable problems such as stream close failures
//   - ERROR: failed saves and dropped callbacks
//   - FATAL: startup errors that terminate the process
//
// The level is read once from DEBUG or LOG_LEVEL and can be overridden with
// SetLevel.
package logging
