package sqlengine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/schoollibrary/circulation/library"
)

func Test_mapDBError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "deadline", err: context.DeadlineExceeded, expected: library.ErrUnavailable},
		{name: "wrapped deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), expected: library.ErrUnavailable},
		{name: "canceled stays canceled", err: context.Canceled, expected: context.Canceled},
		{name: "pgx unique violation", err: &pgconn.PgError{Code: "23505"}, expected: library.ErrValidationFailed},
		{name: "pgx check violation", err: &pgconn.PgError{Code: "23514"}, expected: library.ErrValidationFailed},
		{name: "pgx serialization failure", err: &pgconn.PgError{Code: "40001"}, expected: library.ErrConcurrencyConflict},
		{name: "pgx deadlock", err: &pgconn.PgError{Code: "40P01"}, expected: library.ErrConcurrencyConflict},
		{name: "pgx admin shutdown", err: &pgconn.PgError{Code: "57P01"}, expected: library.ErrUnavailable},
		{name: "pq too many connections", err: &pq.Error{Code: "53300"}, expected: library.ErrUnavailable},
		{name: "pq foreign key violation", err: &pq.Error{Code: "23503"}, expected: library.ErrValidationFailed},
		{name: "sqlite busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, expected: library.ErrUnavailable},
		{name: "sqlite constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, expected: library.ErrValidationFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapDBError(tc.err), tc.expected)
		})
	}
}

func Test_mapDBError_LeavesUnknownErrorsAlone(t *testing.T) {
	// arrange
	err := errors.New("syntax error")

	// act
	mapped := mapDBError(err)

	// assert
	assert.Equal(t, err, mapped)
	assert.False(t, library.IsRetryable(mapped))
}

func Test_isUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.Join(library.ErrWritingFailed, &pgconn.PgError{Code: "23505"})))
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("other")))
}
