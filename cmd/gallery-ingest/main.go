package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gallery-ingest/internal/database"
	"gallery-ingest/internal/dispatch"
	"gallery-ingest/internal/filesystem"
	"gallery-ingest/internal/gallery"
	"gallery-ingest/internal/handlers"
	"gallery-ingest/internal/hub"
	"gallery-ingest/internal/ingest"
	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/media"
	"gallery-ingest/internal/metrics"
	"gallery-ingest/internal/middleware"
	"gallery-ingest/internal/saver"
	"gallery-ingest/internal/startup"
	"gallery-ingest/internal/sweeper"
	"gallery-ingest/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
	dbMetricsInterval = 15 * time.Second
)

// services holds everything that needs an orderly shutdown.
type services struct {
	server    *http.Server
	metrics   *http.Server
	saver     *saver.Saver
	loop      *dispatch.Loop
	results   *hub.Hub
	sweeper   *sweeper.Sweeper
	collector *metrics.Collector
}

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"gallery":  config.GalleryDir,
		"database": config.DatabaseDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion, strconv.Itoa(config.APILevel))

	ctx := context.Background()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	g, err := gallery.Open(config.GalleryDir, db)
	if errors.Is(err, gallery.ErrLocked) {
		startup.LogFatal("Gallery %s is in use by another process", config.GalleryDir)
	}
	if err != nil {
		startup.LogFatal("Failed to open gallery: %v", err)
	}
	defer g.Close()

	pending, err := g.ListPending(ctx)
	if err != nil {
		logging.Warn("Failed to count pending entries: %v", err)
	}
	startup.LogGalleryInit(g.Root(), len(pending))

	loop := dispatch.NewLoop()
	results := hub.New()
	s := saver.New(
		workers.NewSerial("saver"),
		ingest.NewWriter(g, media.ProbeDimensions),
		dispatch.NewDispatcher(loop, results),
		config.APILevel,
	)

	startup.LogSweeperInit(config.PendingTTL, config.SweepInterval)
	sw := sweeper.New(g, db, config.PendingTTL, config.SweepInterval)
	sw.Start()

	collector := metrics.NewCollector(g, collectorInterval)
	collector.Start()

	h := handlers.New(s, g, db, sw, results)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(middleware.Metrics(middleware.DefaultMetricsConfig())(router))

	svc := &services{
		server: &http.Server{
			Addr:              ":" + config.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		saver:     s,
		loop:      loop,
		results:   results,
		sweeper:   sw,
		collector: collector,
	}
	if config.MetricsEnabled {
		svc.metrics = newMetricsServer(config.MetricsPort)
	}

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()
	group, gctx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		loop.Run(context.Background())
		return nil
	})

	group.Go(func() error {
		return listen(svc.server)
	})
	if svc.metrics != nil {
		group.Go(func() error {
			return listen(svc.metrics)
		})
	}

	group.Go(func() error {
		ticker := time.NewTicker(dbMetricsInterval)
		defer ticker.Stop()
		for {
			db.UpdateDBMetrics()
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	group.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		reason := "server error"
		select {
		case sig := <-sigChan:
			reason = sig.String()
		case <-gctx.Done():
		}
		svc.shutdown(reason)
		stopRun()
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := group.Wait(); err != nil {
		logging.Error("Server error: %v", err)
		g.Close()
		db.Close()
		os.Exit(1)
	}
	startup.LogShutdownComplete()
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/save", h.SaveMedia).Methods(http.MethodPost)
	api.HandleFunc("/results", h.Results).Methods(http.MethodGet)
	api.HandleFunc("/media", h.ListMedia).Methods(http.MethodGet)
	api.HandleFunc("/media/pending", h.ListPending).Methods(http.MethodGet)
	api.HandleFunc("/media/{id:[0-9]+}", h.GetEntry).Methods(http.MethodGet)
	api.HandleFunc("/media/{id:[0-9]+}/file", h.GetFile).Methods(http.MethodGet, http.MethodHead)

	return r
}

func newMetricsServer(port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// shutdown stops intake first, then drains queued saves so that every
// accepted request still gets its result delivered.
func (s *services) shutdown(reason string) {
	startup.LogShutdownInitiated(reason)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Draining save queue")
	if err := s.saver.Shutdown(ctx); err != nil {
		logging.Warn("Save queue did not drain (%d left): %v", s.saver.Pending(), err)
	} else {
		startup.LogShutdownStepComplete("Save queue drained")
	}

	startup.LogShutdownStep("Delivering remaining results")
	s.loop.Close()
	select {
	case <-s.loop.Done():
		startup.LogShutdownStepComplete("Result loop stopped")
	case <-ctx.Done():
		logging.Warn("Result loop did not stop: %v", ctx.Err())
	}

	s.results.Close()
	startup.LogShutdownStepComplete("Result subscribers disconnected")

	startup.LogShutdownStep("Stopping sweeper")
	s.sweeper.Stop()
	startup.LogShutdownStepComplete("Sweeper stopped")

	s.collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if s.metrics != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := s.metrics.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}
}
