// Package postgres implements the store interfaces on PostgreSQL through the
// pgx database/sql driver. Dynamic task queries are assembled with squirrel,
// caller-defined task fields live in a JSONB column, and the schema is managed
// by goose migrations embedded in the binary.
package postgres
