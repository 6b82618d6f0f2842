package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// Migrations holds the SQL migrations compiled into the binary.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const migrationsDir = "migrations"

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf forwards goose progress messages at info level.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level. It does not exit; the error reaches the caller
// through the goose return value.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Migrate runs a goose command ("up", "down", "status", "version", "reset", ...)
// against db using the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger, args ...string) error {
	if logger == nil {
		logger = slog.Default()
	}

	goose.SetBaseFS(Migrations)
	goose.SetLogger(&slogGooseLogger{logger: logger.With(slog.String("component", "migrations"))})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("migration command %q failed: %w", command, err)
	}
	return nil
}
