// Package main implements the entry point for the Taskly API server, an HTTP
// JSON backend for user accounts and their task lists.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskly-api/internal/config"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
	"github.com/phrazzld/taskly-api/internal/redact"
)

func main() {
	migrate := flag.String("migrate", "", "run a goose migration command (up, down, status, version, redo, reset) and exit")
	flag.Parse()

	if err := run(*migrate); err != nil {
		slog.Error("taskly-api exited with error", "error", redact.Error(err))
		os.Exit(1)
	}
}

// run loads configuration, sets up logging and either applies migrations or
// serves HTTP until SIGINT/SIGTERM.
func run(migrateCommand string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateCommand != "" {
		return runMigrations(ctx, cfg, log, migrateCommand)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.startHTTPServer(ctx, app.setupRouter())
}
