// Package testdb provisions databases for integration tests.
//
// A test database comes from the first available source:
//
//   - DATABASE_URL (Postgres) or MONGO_URL (MongoDB) when set;
//   - a disposable container started with testcontainers-go when
//     TASKLY_TESTCONTAINERS=1;
//   - otherwise ErrUnavailable, and callers skip their integration tests.
//
// Postgres databases are migrated with the embedded goose migrations, and
// WithTx gives each test a transaction that is rolled back afterwards.
package testdb
