package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-share/internal/artifacts"
	"media-share/internal/database"
	"media-share/internal/editor"
	"media-share/internal/handlers"
	"media-share/internal/ingest"
	"media-share/internal/logging"
	"media-share/internal/memory"
	"media-share/internal/middleware"
	"media-share/internal/preprocess"
	"media-share/internal/probe"
	"media-share/internal/startup"
	"media-share/internal/validate"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Configure GOMEMLIMIT before any significant allocations
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	ctx := context.Background()
	db, err := database.New(ctx, config.DatabasePath, config.TablePrefix)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			db.CleanExpiredSessions()
		}
	}()

	// Keep the connection-pool gauge current
	if config.MetricsEnabled {
		go func() {
			ticker := time.NewTicker(time.Minute)
			for range ticker.C {
				db.UpdateDBMetrics()
			}
		}()
	}

	// Initialize the upload pipeline
	store := artifacts.New(config.UploadDir)
	gate := validate.New(config.UploadSecret, config.MaxUploadSize)
	prober := probe.New(config.FFprobePath, config.SubprocessTimeout)
	svc := ingest.New(db, store, gate, prober, preprocess.Config{
		ThumbnailWidth:    config.ThumbnailWidth,
		MagickPath:        config.MagickPath,
		SubprocessTimeout: config.SubprocessTimeout,
	})
	ed := editor.New(db, store)

	// Collect orphaned artifacts in the background
	if config.SweepInterval > 0 {
		go runSweep(db, store, config.SweepInterval, config.SweepGrace)
	}

	// Initialize handlers
	h := handlers.New(db, store, svc, ed, config)

	// Setup router
	router := setupRouter(h)

	// Apply metrics middleware
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics are served on their own port so they stay off the
	// public surface.
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			logging.Info("Metrics listening on :%s", config.MetricsPort)
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv)

	// Start server
	startup.LogServerStarted(config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods("GET")
	auth.HandleFunc("/setup", h.Setup).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// Media API; each handler does its own session/secret/token check
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/upload", h.Upload).Methods("POST")
	api.HandleFunc("/edit", h.Edit).Methods("POST")
	api.HandleFunc("/tasks", h.Tasks).Methods("GET")

	return r
}

// runSweep periodically removes artifacts no metadata row references.
func runSweep(db *database.Database, store *artifacts.Store, interval, grace time.Duration) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		known, err := db.ListFileIDs(context.Background())
		if err != nil {
			logging.Warn("Sweep skipped, failed to list file ids: %v", err)
			continue
		}
		removed, err := store.Sweep(known, grace)
		if err != nil {
			logging.Warn("Sweep failed: %v", err)
			continue
		}
		if removed > 0 {
			logging.Info("Sweep removed %d orphaned artifact(s)", removed)
		}
	}
}

func handleShutdown(srv, metricsSrv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	startup.LogShutdownComplete()
}
