package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/startup"
	"gallery-ingest/internal/sweeper"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
	statusDown     = "unavailable"

	pingTimeout = 2 * time.Second
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`

	// Queue info
	QueuedRequests int `json:"queuedRequests"`

	Sweeper *sweeper.Status `json:"sweeper,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	dbErr := h.pingDatabase(r.Context())

	response := HealthResponse{
		Status:         statusHealthy,
		Ready:          dbErr == nil,
		Version:        startup.Version,
		Uptime:         time.Since(h.startTime).Round(time.Second).String(),
		Database:       "ok",
		QueuedRequests: h.saver.Pending(),
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
	}

	if h.sweeper != nil {
		status := h.sweeper.Status()
		response.Sweeper = &status
		if status.LastError != "" {
			response.Status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if dbErr != nil {
		logging.Warn("Health check: database ping failed: %v", dbErr)
		response.Status = statusDown
		response.Database = dbErr.Error()
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the catalog answers
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.pingDatabase(r.Context()); err != nil {
		writeJSONStatus(w, "not_ready", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "ready", http.StatusOK)
}

func (h *Handlers) pingDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}
