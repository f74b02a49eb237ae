package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewilliams-labs/moodmuse/internal/adapters/itunes"
	"github.com/ewilliams-labs/moodmuse/internal/adapters/muse"
	"github.com/ewilliams-labs/moodmuse/internal/adapters/rest"
	"github.com/ewilliams-labs/moodmuse/internal/adapters/sqlite"
	"github.com/ewilliams-labs/moodmuse/internal/core/services"
	"github.com/ewilliams-labs/moodmuse/internal/shared"
	"github.com/ewilliams-labs/moodmuse/internal/worker"
)

func main() {
	logger := shared.NewLogger(os.Stderr)

	// Configuration: TOML file when present, embedded defaults otherwise,
	// env vars win for the endpoints.
	cfg := shared.DefaultConfig()
	configPath := os.Getenv("MOODMUSE_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}
	if loaded, err := shared.LoadConfig(configPath); err == nil {
		cfg = loaded
	} else if os.Getenv("MOODMUSE_CONFIG") != "" {
		logger.Fatal("failed to load config", "path", configPath, "err", err)
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.Muse.BaseURL = host
	}
	if model := os.Getenv("MOODMUSE_MODEL"); model != "" {
		cfg.Muse.Model = model
	}

	// Driven adapters.
	history, err := sqlite.NewAdapter()
	if err != nil {
		logger.Fatal("failed to initialize history store", "err", err)
	}
	defer history.Close()

	catalog := itunes.NewClient(itunes.Options{
		BaseURL:    cfg.Catalog.BaseURL,
		Country:    cfg.Catalog.Country,
		MaxRetries: cfg.Catalog.MaxRetries,
		BaseDelay:  time.Duration(cfg.Catalog.BackoffMs) * time.Millisecond,
	}, logger)

	engine := muse.NewClient(cfg.Muse.BaseURL, cfg.Muse.Model)

	pool := worker.NewPool(cfg.Analysis.Workers, cfg.Analysis.QueueSize, logger)
	pool.Start()
	defer pool.Stop()

	// Core logic.
	registry := services.NewRegistry(
		catalog,
		engine,
		history,
		pool,
		time.Duration(cfg.Catalog.ThrottleMs)*time.Millisecond,
		logger,
	)
	defer registry.Close()

	// Driving adapter.
	handler := rest.NewHandler(registry, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("MoodMuse API is running", "addr", addr, "model", cfg.Muse.Model)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal("server failed", "err", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
	}
}
