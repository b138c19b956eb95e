package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/mediafetch/internal/api"
	"github.com/timmy/mediafetch/internal/config"
	"github.com/timmy/mediafetch/internal/fetcher"
	"github.com/timmy/mediafetch/internal/logger"
	"github.com/timmy/mediafetch/internal/repository"
	"github.com/timmy/mediafetch/internal/service"
	"github.com/timmy/mediafetch/internal/storage"
)

func main() {
	// Initialize logger first so config errors are structured too
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := context.Background()

	store := service.NewJobStore()
	sweeper := service.NewSweeper(store, cfg.Downloader.Retention)
	defer sweeper.Stop()

	var hooks []service.FinishHook
	var history service.HistoryStore

	// Optional download history
	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		repo := repository.NewDownloadRepository(db)
		history = repo
		hooks = append(hooks, service.NewHistoryRecorder(repo))
	}

	// Optional archive of finished files (supports R2, S3, S3-compatible)
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		hooks = append(hooks, service.NewArchiver(objectStorage, cfg.Storage.Prefix))
	}

	// Optional completion webhook
	if cfg.Notify.WebhookURL != "" {
		hooks = append(hooks, service.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout))
	}

	runner := service.NewRunner(store, sweeper, fetcher.NewExecLauncher(cfg.Downloader.Env...), &service.RunnerConfig{
		Binary:        cfg.Downloader.Binary,
		OutputDir:     cfg.Downloader.OutputDir,
		ExtraArgs:     cfg.Downloader.ExtraArgs,
		MaxConcurrent: cfg.Downloader.MaxConcurrent,
	}, hooks...)

	downloadService := service.NewDownloadService(
		store,
		runner,
		service.NewPublisher(store, cfg.Downloader.PollInterval),
		history,
		&service.DownloadServiceConfig{OutputDir: cfg.Downloader.OutputDir},
	)

	if err := os.MkdirAll(cfg.Downloader.OutputDir, 0755); err != nil {
		appLogger.WithError(err).Fatal("Failed to create download directory")
	}

	router := api.SetupRouter(downloadService, &cfg.Server, appLogger)

	// Progress streams are long-lived, so no write timeout
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":       cfg.Server.Port,
			"mode":       cfg.Server.Mode,
			"binary":     cfg.Downloader.Binary,
			"output_dir": cfg.Downloader.OutputDir,
			"hooks":      len(hooks),
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	// Let running jobs finish so their hooks still record them
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Downloader.DrainTimeout)
	defer cancelDrain()
	if !runner.Drain(drainCtx) {
		appLogger.WithFields(logger.Fields{
			"abandoned_jobs": runner.InFlight(),
			"drain_timeout":  cfg.Downloader.DrainTimeout.String(),
		}).Warn("Abandoning unfinished downloads; their history and webhooks are lost")
	}

	appLogger.Info("Server exited")
}
