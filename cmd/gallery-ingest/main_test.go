package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gallery-ingest/internal/handlers"
	"gallery-ingest/internal/startup"
)

func TestSetupRouter_Routes(t *testing.T) {
	router := setupRouter(handlers.New(nil, nil, nil, nil, nil))

	routes, err := startup.GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	registered := make(map[string]bool)
	for _, r := range routes {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /health",
		"GET /livez",
		"HEAD /livez",
		"GET /readyz",
		"GET /version",
		"POST /api/save",
		"GET /api/results",
		"GET /api/media",
		"GET /api/media/pending",
		"GET /api/media/{id:[0-9]+}",
		"GET /api/media/{id:[0-9]+}/file",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %q not registered", route)
		}
	}
}

func TestSetupRouter_RejectsNonNumericIDs(t *testing.T) {
	router := setupRouter(handlers.New(nil, nil, nil, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/media/abc", http.NoBody))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/save", http.NoBody))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/save status = %d, want 405", rec.Code)
	}
}

func TestNewMetricsServer(t *testing.T) {
	srv := newMetricsServer("9999")
	if srv.Addr != ":9999" {
		t.Errorf("Addr = %q", srv.Addr)
	}
	if srv.ReadTimeout <= 0 || srv.WriteTimeout <= 0 || srv.IdleTimeout <= 0 {
		t.Error("metrics server timeouts should be positive")
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", rec.Code)
	}
}
