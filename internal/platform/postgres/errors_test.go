package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskly-api/internal/store"
	"github.com/stretchr/testify/assert"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, store.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, store.ErrInvalidEntity},
		{"check violation", &pgconn.PgError{Code: "23514"}, store.ErrInvalidEntity},
		{"not null violation", &pgconn.PgError{Code: "23502"}, store.ErrInvalidEntity},
		{"bad uuid text", &pgconn.PgError{Code: "22P02"}, store.ErrInvalidID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mapped := MapError(fmt.Errorf("query: %w", tc.err))
			assert.ErrorIs(t, mapped, tc.want)
			assert.ErrorIs(t, mapped, tc.err, "original error stays in the chain")
		})
	}

	assert.NoError(t, MapError(nil))

	other := errors.New("connection refused")
	assert.Same(t, other, MapError(other))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

func TestCheckRowsAffected(t *testing.T) {
	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrTaskNotFound))
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.Error(t, CheckRowsAffected(fakeResult{err: errors.New("boom")}, store.ErrTaskNotFound))
	assert.Error(t, CheckRowsAffected(nil, store.ErrTaskNotFound))
}
