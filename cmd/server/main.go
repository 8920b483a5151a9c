// Package main implements the entry point for the Schedr API server,
// which handles user accounts, the course catalog, and the drag-and-drop
// schedule builder's persistence.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/schedr/schedr-api/internal/api"
	"github.com/schedr/schedr-api/internal/api/middleware"
	"github.com/schedr/schedr-api/internal/config"
	"github.com/schedr/schedr-api/internal/platform/logger"
	"github.com/schedr/schedr-api/internal/platform/postgres"
	"github.com/schedr/schedr-api/internal/service"
	"github.com/schedr/schedr-api/internal/service/auth"
	"github.com/schedr/schedr-api/internal/task"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// run wires the application together and blocks until shutdown completes.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"static_dir", cfg.Server.StaticDir)

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("failed to close database", "error", closeErr)
		}
	}()

	if err := runMigrations(db); err != nil {
		return err
	}

	// Stores
	userStore := postgres.NewPostgresUserStore(db, appLogger)
	sessionStore := postgres.NewPostgresSessionStore(db, appLogger)
	catalogStore := postgres.NewPostgresCatalogStore(db, appLogger)
	scheduleStore := postgres.NewPostgresScheduleStore(db, appLogger)
	importStore := postgres.NewPostgresImportStore(db, appLogger)

	// Background import pipeline
	queue := task.NewTaskQueue(cfg.Catalog.ImportQueueSize, appLogger)
	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{
		WorkerCount: cfg.Catalog.ImportWorkers,
	}, appLogger)
	pool.Start()

	// Periodic cleanup of sessions past their absolute expiry. Runs on the
	// shared pool so shutdown drains it like any import.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Auth.SessionPurgeMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := queue.Enqueue(task.NewSessionPurgeTask(sessionStore, appLogger)); err != nil {
					appLogger.Warn("failed to enqueue session purge", "error", err)
				}
			}
		}
	}()

	// Services
	sessionService, err := auth.NewSessionService(sessionStore, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create session service: %w", err)
	}
	shareTokenService, err := auth.NewShareTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create share token service: %w", err)
	}
	userService := service.NewUserService(
		userStore,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		auth.NewBcryptVerifier(),
		db,
		appLogger,
	)
	catalogService := service.NewCatalogService(catalogStore, importStore, queue, db, appLogger)
	scheduleService := service.NewScheduleService(
		scheduleStore,
		catalogStore,
		shareTokenService,
		appLogger,
	)

	router := newRouter(routerDeps{
		cfg:             cfg,
		logger:          appLogger,
		authMiddleware:  middleware.NewAuthMiddleware(sessionService),
		authHandler:     api.NewAuthHandler(userService, sessionService),
		userHandler:     api.NewUserHandler(userService, sessionService),
		catalogHandler:  api.NewCatalogHandler(catalogService),
		scheduleHandler: api.NewScheduleHandler(scheduleService),
		shareHandler:    api.NewShareHandler(shareTokenService, scheduleService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		appLogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", "error", err)
	}

	// Stop taking new imports, then let the queued ones drain.
	queue.Close()
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelDrain()
	pool.Stop(drainCtx)

	appLogger.Info("server stopped")
	return nil
}
