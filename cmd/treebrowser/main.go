package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/mcp"
	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/server"
	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/treestore"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	httpAddr := flag.String("http-addr", "", "Listen address for the HTTP API (overrides config)")
	dataDir := flag.String("data-dir", "", "Directory with manifest.yaml and node files (overrides config)")
	mcpMode := flag.Bool("mcp", false, "Serve MCP over stdio instead of the HTTP API")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	setupLogging(*logLevel)

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		slog.Error("cannot load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	store, err := treestore.LoadDir(cfg.DataDir)
	if err != nil {
		slog.Error("cannot load datasets", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	if *mcpMode {
		runMCP(store)
		return
	}

	srv := server.New(store, cfg)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}

// runMCP serves the MCP tools on stdio until the client disconnects.
func runMCP(store *treestore.Store) {
	srv := mcp.NewMCPServer(store)
	if err := srv.Run(context.Background(), &sdk.StdioTransport{}); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler. Logs go to stderr because
// in MCP mode stdout belongs to the protocol.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
