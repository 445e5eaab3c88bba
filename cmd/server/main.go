package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/cable-exports/internal/config"
	"github.com/JonMunkholm/cable-exports/internal/core"
	"github.com/JonMunkholm/cable-exports/internal/loader"
	"github.com/JonMunkholm/cable-exports/internal/logging"
	"github.com/JonMunkholm/cable-exports/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"source", cfg.Source.Path,
		"sheet", cfg.Source.Sheet,
		"rows", []int{cfg.Source.FirstRow, cfg.Source.LastRow},
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	cache, err := loader.NewCache(cfg.Source.CacheSize, loader.Layout{
		Sheet:    cfg.Source.Sheet,
		FirstRow: cfg.Source.FirstRow,
		LastRow:  cfg.Source.LastRow,
	}, loader.Options{NormalizeKeys: cfg.Source.NormalizeKeys})
	if err != nil {
		slog.Error("failed to create workbook cache", "error", err)
		os.Exit(1)
	}

	service := core.NewService(cache, cfg)

	// Warm the cache. A missing workbook is not fatal: the dashboard reports
	// it and recovers once the file appears.
	if info, _, err := service.Health(context.Background()); err != nil {
		msg := core.MapError(err)
		slog.Warn("workbook not available at startup", "error", err, "code", msg.Code)
	} else {
		slog.Info("workbook loaded", "records", info.Records, "skipped", info.Skipped, "dataset", info.ID)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
