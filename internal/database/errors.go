package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain errors the HTTP layer translates into status codes. Store
// implementations return these instead of leaking driver errors.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("record already exists")
	// ErrForeignKey indicates a referenced row does not exist or is
	// still referenced.
	ErrForeignKey = errors.New("related record constraint violated")
	// ErrInvalidData indicates the row violated a NOT NULL or CHECK
	// constraint.
	ErrInvalidData = errors.New("invalid record data")
)

// PostgreSQL error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// MapError converts pgx errors into domain errors. Unrecognized errors
// pass through unchanged and are treated as store failures upstream.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrForeignKey
		case pgNotNullViolation, pgCheckViolation:
			return ErrInvalidData
		}
	}
	return err
}
