// Package main runs the OCR Agent Pro MCP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ocragent/ocr-agent-pro/internal/app"
	"github.com/ocragent/ocr-agent-pro/internal/config"
	"github.com/ocragent/ocr-agent-pro/internal/logging"
	mcpserver "github.com/ocragent/ocr-agent-pro/internal/mcp"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.FromConfig(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// Decide between model and fallback embeddings before serving.
	a.Embedder.Init(ctx)
	logger.Info("Embedding backend ready", "mode", a.Embedder.Mode(), "dimension", a.Embedder.Dimension())

	pool := a.NewPool()
	defer pool.Close()

	server := mcpserver.NewServer(&mcpserver.Config{
		Store:    a.Store,
		Search:   a.Search,
		Embedder: a.Embedder,
		Pipeline: a.Pipeline,
		Pool:     pool,
		Version:  version,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mcpserver.NewMux(server, a.Store, a.Embedder, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if cfg.ServerMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		logger.Info("Starting HTTP server", "addr", cfg.Addr(), "mcp", "/mcp", "health", "/health")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	// Stdio mode: health endpoint in the background, MCP on stdin/stdout
	go func() {
		logger.Info("Starting health server", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Health server error", "error", err)
		}
	}()

	logger.Info("Starting OCR Agent Pro MCP server (stdio mode)")
	return server.Run(ctx)
}
