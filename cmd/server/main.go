package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/DukeRupert/fetch/internal"
	"github.com/DukeRupert/fetch/internal/handler"
	"github.com/DukeRupert/fetch/internal/jobs"
	"github.com/DukeRupert/fetch/internal/library"
	"github.com/DukeRupert/fetch/internal/metrics"
	"github.com/DukeRupert/fetch/internal/middleware"
	"github.com/DukeRupert/fetch/internal/platform"
	"github.com/DukeRupert/fetch/internal/repository"
	"github.com/DukeRupert/fetch/internal/service"
	"github.com/DukeRupert/fetch/internal/storage"
	"github.com/DukeRupert/fetch/internal/upload"
	"github.com/DukeRupert/fetch/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize storage
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Platform adapters: the signed-in user, blobs and post documents
	blobs := platform.NewStorageBlobs(store, cfg.MaxUploadSizeBytes)
	docs := platform.NewPostgresDocuments(repo, logger)

	pipeline, err := upload.NewPipeline(platform.ContextAuth{}, blobs, docs, upload.Config{
		Mode:        cfg.UploadMode,
		CropSize:    cfg.UploadCropSize,
		Quality:     cfg.UploadQuality,
		Concurrency: cfg.UploadConcurrency,
	}, logger)
	if err != nil {
		return fmt.Errorf("upload pipeline initialization failed: %w", err)
	}

	// Initialize services
	userService := service.NewUserService(repo, service.UserServiceConfig{
		SessionDuration: cfg.SessionDuration,
	}, logger)
	feedService := service.NewFeedService(docs, cfg.FeedLimit, logger)

	var enqueueThumbnail service.ThumbnailEnqueuer
	if cfg.WorkerEnabled {
		enqueueThumbnail = func(ctx context.Context, postID, imageKey string) error {
			_, err := worker.EnqueueFeedThumbnail(ctx, repo, postID, imageKey)
			return err
		}
	}

	selectorService := service.NewSelectorService(
		userLibraries(cfg, logger),
		pipeline,
		enqueueThumbnail,
		service.SelectorServiceConfig{
			Source:      library.SourceConfig{PageSize: cfg.LibraryPageSize},
			IdleTimeout: cfg.SelectorIdleTimeout,
		},
		logger,
	)

	// Background worker
	var jobWorker *worker.Worker
	if cfg.WorkerEnabled {
		jobWorker, err = worker.New(db, repo, worker.Config{
			Concurrency:       cfg.WorkerConcurrency,
			PollInterval:      cfg.WorkerPollInterval,
			JobTimeout:        cfg.WorkerJobTimeout,
			ShutdownTimeout:   30 * time.Second,
			StaleJobThreshold: 10 * cfg.WorkerJobTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		jobWorker.Register(jobs.NewFeedThumbnailHandler(store, docs, service.NewImagingProcessor(), logger))
		jobWorker.Register(jobs.NewExpiredSessionsHandler(userService, logger))
		// Stop drains running jobs, so they must not see the signal context.
		jobWorker.Start(context.WithoutCancel(ctx))

		go scheduleSessionSweep(ctx, repo, cfg.SessionSweepInterval, logger)
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	authLimiter := middleware.NewAuthRateLimiter(logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, authLimiter, logger, isSecure)
	selectorHandler := handler.NewSelectorHandler(selectorService, logger)
	feedHandler := handler.NewFeedHandler(feedService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Uploaded files, when stored locally
	if local, ok := store.(*storage.LocalStorage); ok {
		files := http.FileServer(http.Dir(local.BasePath()))
		mux.Handle("GET /files/", http.StripPrefix("/files/", files))
	}

	requireUser := authMw.RequireUser

	authHandler.RegisterRoutes(mux, handler.AuthRoutes{
		Login:       authLimiter.LimitLogin,
		Signup:      authLimiter.LimitSignup,
		RequireUser: requireUser,
	})
	selectorHandler.RegisterRoutes(mux, requireUser)
	feedHandler.RegisterRoutes(mux, requireUser)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	// metrics.Middleware reads the matched pattern, so it sits directly on
	// the mux.
	app := middleware.Stack(
		loggingMw.Handler,
		securityMw.Handler,
		authMw.WithUser,
		metrics.Middleware,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
		// Confirm uploads a whole collection before responding.
		WriteTimeout: 2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if jobWorker != nil {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage builds the configured storage backend.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderR2, storage.ProviderS3:
		return storage.NewObjectStorage(cfg.ObjectStorageConfig(), logger)
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
}

// userLibraries opens each user's photo directory under LIBRARY_PATH.
func userLibraries(cfg *internal.Config, logger *slog.Logger) service.LibraryProvider {
	return func(ctx context.Context, userID string) (service.UserLibrary, error) {
		return library.NewDirLibrary(library.DirConfig{
			Root:          filepath.Join(cfg.LibraryPath, userID),
			AccessGranted: cfg.LibraryAccessGranted,
		}, logger.With("user_id", userID))
	}
}

// scheduleSessionSweep enqueues an expired session cleanup every interval
// until ctx is cancelled.
func scheduleSessionSweep(ctx context.Context, queries *repository.Queries, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := worker.EnqueueExpiredSessionCleanup(ctx, queries); err != nil {
				logger.Error("failed to enqueue session cleanup", "error", err)
			}
		}
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
