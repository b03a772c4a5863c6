package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/junyeong-ai/mcp-atlassian/internal/atlassian"
	"github.com/junyeong-ai/mcp-atlassian/internal/config"
	"github.com/junyeong-ai/mcp-atlassian/internal/mcp"
	"github.com/junyeong-ai/mcp-atlassian/internal/tools"
	"github.com/junyeong-ai/mcp-atlassian/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "Path to optional YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger is not configured yet; fall back to a plain stderr handler.
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	// Logger must write to Stderr to avoid interfering with the stdio protocol
	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	backend := atlassian.NewClient(cfg)
	registry := tools.NewRegistry(cfg, backend, logger)
	server := mcp.NewServer(registry, logger)
	stdio := transport.NewStdio(server, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	logger.Info("Starting MCP Atlassian server", "domain", cfg.AtlassianDomain)

	if err := stdio.Run(ctx); err != nil {
		logger.Error("Transport error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.JSONLogs {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
