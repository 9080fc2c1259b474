// Package main is the entry point for the daily log server.
//
// main() stays minimal: load configuration, build a logger, make sure the
// database directory exists, and hand everything to internal/server. All
// actual behavior lives in the imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/daily-log/internal/config"
	"github.com/sakif/daily-log/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Load never fails — a misconfigured deployment still boots, into
	// configuration-error mode, so the supervisor sees a healthy process
	// and the operator sees a clear 503 instead of a crash loop.
	cfg := config.Load()

	// The data directory must exist before sqlite can create the file.
	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM or a listener error.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
