package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wikidock/internal/catalog"
	"wikidock/internal/config"
	"wikidock/internal/history"
	"wikidock/internal/storage/fs"
	"wikidock/internal/web"
)

func main() {
	level := parseLogLevel(os.Getenv("DOCK_DEBUG_LEVEL"))
	pretty := strings.EqualFold(os.Getenv("DOCK_LOG_PRETTY"), "1") || strings.EqualFold(os.Getenv("DOCK_LOG_PRETTY"), "true")
	var handler slog.Handler
	if pretty {
		handler = newPrettyHandler(os.Stdout, level)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))

	cfg := config.Load()
	if cfg.DataPath == "" {
		slog.Error("DOCK_DATA_PATH is required")
		os.Exit(1)
	}
	dataPath, err := filepath.Abs(cfg.DataPath)
	if err != nil {
		slog.Error("resolve data path", "err", err)
		os.Exit(1)
	}
	cfg.DataPath = dataPath
	if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
		slog.Error("create data dir", "err", err)
		os.Exit(1)
	}

	blobs := fs.NewStore(cfg.DataPath)
	docs := catalog.New(blobs)
	docs.Bootstrap()

	journal, err := history.Open(filepath.Join(cfg.DataPath, "history.db"))
	if err != nil {
		slog.Error("open save journal", "err", err)
		os.Exit(1)
	}
	defer journal.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := journal.Init(ctx); err != nil {
		slog.Error("init save journal", "err", err)
		os.Exit(1)
	}

	srv, err := web.NewServer(cfg, docs, blobs, journal)
	if err != nil {
		slog.Error("auth init", "err", err)
		os.Exit(1)
	}

	watcher, err := srv.WatchTemplates()
	if err != nil {
		slog.Warn("template watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("listening", "addr", cfg.ListenAddr, "data", cfg.DataPath)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Handler()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
