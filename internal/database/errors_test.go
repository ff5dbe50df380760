package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{
			name:     "nil passes through",
			err:      nil,
			expected: nil,
		},
		{
			name:     "no rows becomes not found",
			err:      pgx.ErrNoRows,
			expected: ErrNotFound,
		},
		{
			name:     "wrapped no rows becomes not found",
			err:      fmt.Errorf("querying user: %w", pgx.ErrNoRows),
			expected: ErrNotFound,
		},
		{
			name:     "unique violation becomes duplicate",
			err:      &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			expected: ErrDuplicate,
		},
		{
			name:     "foreign key violation",
			err:      &pgconn.PgError{Code: "23503"},
			expected: ErrForeignKey,
		},
		{
			name:     "not null violation becomes invalid data",
			err:      &pgconn.PgError{Code: "23502"},
			expected: ErrInvalidData,
		},
		{
			name:     "check violation becomes invalid data",
			err:      &pgconn.PgError{Code: "23514"},
			expected: ErrInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapError(tt.err))
		})
	}
}

func TestMapError_UnknownErrorPassesThrough(t *testing.T) {
	cause := errors.New("connection reset by peer")
	assert.Equal(t, cause, MapError(cause))

	// Unrecognized pg error codes also pass through.
	pgErr := &pgconn.PgError{Code: "57014", Message: "canceling statement"}
	assert.Equal(t, error(pgErr), MapError(pgErr))
}
