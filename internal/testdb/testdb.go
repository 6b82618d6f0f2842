package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/taskly-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Environment variables consulted by this package.
const (
	EnvDatabaseURL    = "DATABASE_URL"
	EnvMongoURL       = "MONGO_URL"
	EnvTestcontainers = "TASKLY_TESTCONTAINERS"
)

// StartupTimeout bounds how long a container may take to become ready.
const StartupTimeout = 90 * time.Second

// ErrUnavailable is returned when no database is configured for tests.
var ErrUnavailable = errors.New("no test database available")

func noop() {}

func containersEnabled() bool {
	return os.Getenv(EnvTestcontainers) == "1"
}

// PostgresURL returns a connection URL for a Postgres test database and a
// cleanup function that must be called once the tests are done.
func PostgresURL(ctx context.Context) (string, func(), error) {
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		return url, noop, nil
	}
	if !containersEnabled() {
		return "", noop, ErrUnavailable
	}

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("taskly_test"),
		tcpostgres.WithUsername("taskly"),
		tcpostgres.WithPassword("taskly"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(StartupTimeout)),
	)
	if err != nil {
		return "", noop, fmt.Errorf("failed to start postgres container: %w", err)
	}
	cleanup := func() { _ = ctr.Terminate(context.Background()) }

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to get postgres connection string: %w", err)
	}
	return url, cleanup, nil
}

// MongoURL returns a connection URL for a MongoDB test server and a cleanup
// function that must be called once the tests are done.
func MongoURL(ctx context.Context) (string, func(), error) {
	if url := os.Getenv(EnvMongoURL); url != "" {
		return url, noop, nil
	}
	if !containersEnabled() {
		return "", noop, ErrUnavailable
	}

	ctr, err := tcmongodb.Run(ctx, "mongo:7")
	if err != nil {
		return "", noop, fmt.Errorf("failed to start mongodb container: %w", err)
	}
	cleanup := func() { _ = ctr.Terminate(context.Background()) }

	url, err := ctr.ConnectionString(ctx)
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to get mongodb connection string: %w", err)
	}
	return url, cleanup, nil
}

// OpenPostgres connects to url and applies all migrations.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := postgres.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db, "up", nil); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// leave no rows behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Errorf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
