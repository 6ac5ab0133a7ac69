// Command justmcp runs the justmcp MCP server.
//
// It watches one or more directories' justfiles, publishes each recipe as
// an individually invocable MCP tool, and communicates over stdio using
// JSON-RPC 2.0 (or, optionally, Streamable HTTP).
//
// Optional environment variables:
//
//	JUSTMCP_CONFIG              - path to a justmcp.toml config file
//	JUSTMCP_WATCH_DIRECTORIES   - comma-separated list of directories to watch
//	JUSTMCP_LOG_LEVEL           - debug, info, warn, error (default: info)
//	JUSTMCP_TRANSPORT           - stdio or http (default: stdio)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/justmcp/justmcp/internal/admin"
	"github.com/justmcp/justmcp/internal/config"
	"github.com/justmcp/justmcp/internal/dispatch"
	"github.com/justmcp/justmcp/internal/exec"
	"github.com/justmcp/justmcp/internal/mcp"
	"github.com/justmcp/justmcp/internal/parser"
	"github.com/justmcp/justmcp/internal/registry"
	"github.com/justmcp/justmcp/internal/resources"
	"github.com/justmcp/justmcp/internal/watcher"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "justmcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			configPath = os.Args[i+1]
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	version := cfg.Server.Version
	if Version != "dev" {
		version = Version
	}

	logger.Info("starting justmcp",
		"version", version,
		"watch_directories", cfg.Watch.Directories,
		"parser_preference", cfg.Parser.Preference,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := registry.New()
	pipeline := parser.New(parser.ParsePreferenceFromString(cfg.Parser.Preference), cfg.Parser.JustBinary, cfg.CLITimeout())

	w, err := watcher.New(cfg.Watch.Directories, pipeline, reg, cfg.DebounceDuration(), cfg.MultiDirectory(), logger)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Stop()

	runner := exec.New(cfg.Parser.JustBinary, cfg.CallTimeout())
	executor := dispatch.New(reg, runner)

	configView := resources.ConfigView{
		WatchDirectories: cfg.Watch.Directories,
		ParserPreference: cfg.Parser.Preference,
		DefaultTimeout:   cfg.CallTimeout(),
		MultiDirectory:   cfg.MultiDirectory(),
		JustBinary:       cfg.Parser.JustBinary,
	}
	resourceProvider := resources.New(resources.NewCollector(reg, configView))

	adminTools := admin.New(reg, w, pipeline)

	server := mcp.NewServer(reg, executor, resourceProvider, adminTools, mcp.ServerInfo{
		Name:    cfg.Server.Name,
		Version: version,
	}, logger)

	if cfg.Transport.Mode == "http" {
		httpServer := mcp.NewHTTPServer(server, cfg.Transport.CORSOrigins, logger)
		addr := cfg.Transport.Host + ":" + cfg.Transport.Port
		logger.Info("listening for MCP over HTTP", "addr", addr)
		return serveHTTP(ctx, addr, httpServer, logger)
	}

	return server.Run(ctx)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
