// Package main runs the mediation service as a standalone HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storygraph-backend/internal/config"
	"storygraph-backend/internal/di"
	"storygraph-backend/pkg/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "storygraph-backend",
		Environment: string(cfg.Environment),
		Endpoint:    cfg.TracingEndpoint,
		Enabled:     cfg.EnableTracing,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// The watcher is inert outside development. Reloads are logged only;
	// credentials and database ids stay fixed for the process lifetime.
	watcher, err := config.NewWatcher(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to start configuration watcher", zap.Error(err))
	}
	watcher.OnReload(func(next *config.Config) {
		logger.Info("configuration overlay reloaded",
			zap.Strings("loadedFrom", next.LoadedFrom),
		)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      container.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.Int("port", cfg.Port),
			zap.String("environment", string(cfg.Environment)),
			zap.Strings("configSources", cfg.LoadedFrom),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	watcher.Stop()
	container.Cache.Stop()

	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
