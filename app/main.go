package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boardswallah/boards-press/app/api"
	"github.com/boardswallah/boards-press/app/catalog"
	"github.com/boardswallah/boards-press/app/cfg"
	"github.com/boardswallah/boards-press/app/database"
	"github.com/boardswallah/boards-press/app/generation"
	"github.com/boardswallah/boards-press/app/publish"
	"github.com/boardswallah/boards-press/app/readcache"
	"github.com/boardswallah/boards-press/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting BoardsPress", "version", appCfg.Version, "store", appCfg.StoreDriver, "cache", appCfg.CacheBackend)

	ctx := context.Background()

	catalogStore := catalog.NewStore(appCfg.CatalogFile)
	if err := catalogStore.Run(); err != nil {
		slog.Error("Failed to load catalog", "error", err)
		os.Exit(1)
	}

	store, err := database.Open(ctx, appCfg)
	if err != nil {
		slog.Error("Failed to open content store", "driver", appCfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	cache, closeCache, err := readcache.Open(ctx, appCfg, store)
	if err != nil {
		slog.Error("Failed to open read cache", "backend", appCfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeCache()

	client, err := generation.NewFromConfig(appCfg, catalogStore)
	if err != nil {
		slog.Error("Failed to configure generation", "error", err)
		os.Exit(1)
	}

	pipeline, err := publish.NewPipeline(store, appCfg.AdminSecret, publish.DefaultRegistrySize)
	if err != nil {
		slog.Error("Failed to create publish pipeline", "error", err)
		os.Exit(1)
	}

	scheduler := tasks.NewScheduler(appCfg.WorkerCount, tasks.DefaultQueueSize)
	scheduler.Start()
	defer scheduler.Stop()

	jobs, err := tasks.NewJobs(scheduler, client, tasks.DefaultJobRegistrySize)
	if err != nil {
		slog.Error("Failed to create job registry", "error", err)
		os.Exit(1)
	}

	limiter := api.NewRateLimiter(appCfg.GenerateRate, appCfg.GenerateBurst)
	defer limiter.Stop()

	auth := api.NewAuthenticator(appCfg.AdminSecret, appCfg.SessionTTL)
	handler := api.NewHandler(cache, pipeline, jobs, catalogStore, store, auth)
	server := api.NewServer(handler, limiter)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "mode", client.Mode())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("BoardsPress shutdown complete")
}
