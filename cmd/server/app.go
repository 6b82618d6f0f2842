package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskly-api/internal/config"
	"github.com/phrazzld/taskly-api/internal/platform/mongodb"
	"github.com/phrazzld/taskly-api/internal/platform/postgres"
	"github.com/phrazzld/taskly-api/internal/service"
	"github.com/phrazzld/taskly-api/internal/service/auth"
	"github.com/phrazzld/taskly-api/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Storage drivers accepted in database.driver.
const (
	driverPostgres = "postgres"
	driverMongo    = "mongo"
)

// application holds the wired dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger

	storage *storage

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	userService      service.UserService
	taskService      service.TaskService
}

// storage is the selected backend: its stores plus the client they share.
type storage struct {
	users store.UserStore
	tasks store.TaskStore
	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// newApplication connects to the configured storage and builds the services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app, err := newApplicationWithStorage(cfg, logger, st)
	if err != nil {
		_ = st.close(context.Background())
		return nil, err
	}
	return app, nil
}

// newApplicationWithStorage builds the services on top of an already opened
// storage backend.
func newApplicationWithStorage(cfg *config.Config, logger *slog.Logger, st *storage) (*application, error) {
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	return &application{
		config:           cfg,
		logger:           logger,
		storage:          st,
		jwtService:       jwtService,
		passwordVerifier: auth.NewBcryptVerifier(),
		userService:      service.NewUserService(st.users, logger),
		taskService:      service.NewTaskService(st.tasks, logger),
	}, nil
}

// openStorage connects to the backend selected by database.driver.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Database.Driver {
	case driverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to postgres")
		return postgresStorage(db, cfg.Auth.BCryptCost, logger), nil

	case driverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.Database.URL, cfg.Database.Name)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info("connected to mongodb", "database", cfg.Database.Name)
		return mongoStorage(client, db, cfg.Auth.BCryptCost, logger), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

func postgresStorage(db *sql.DB, bcryptCost int, logger *slog.Logger) *storage {
	return &storage{
		users: postgres.NewPostgresUserStore(db, bcryptCost, logger),
		tasks: postgres.NewPostgresTaskStore(db, logger),
		ping:  db.PingContext,
		close: func(context.Context) error { return db.Close() },
	}
}

func mongoStorage(client *mongo.Client, db *mongo.Database, bcryptCost int, logger *slog.Logger) *storage {
	return &storage{
		users: mongodb.NewMongoUserStore(db, bcryptCost, logger),
		tasks: mongodb.NewMongoTaskStore(db, logger),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}
}

// runMigrations applies a goose command to the Postgres schema. MongoDB has
// no schema; its indexes are created at startup.
func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string) error {
	if cfg.Database.Driver != driverPostgres {
		return fmt.Errorf("migrations only apply to the %s driver, not %q", driverPostgres, cfg.Database.Driver)
	}

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database connection", "error", err)
		}
	}()

	logger.Info("running database migrations", "command", command)
	if err := postgres.Migrate(ctx, db, command, logger); err != nil {
		return err
	}
	logger.Info("database migrations finished", "command", command)
	return nil
}

// cleanup releases the storage client. Safe to call more than once.
func (app *application) cleanup() {
	if app.storage == nil || app.storage.close == nil {
		return
	}
	if err := app.storage.close(context.Background()); err != nil {
		app.logger.Error("failed to close storage", "error", err)
	}
	app.storage.close = nil
}
