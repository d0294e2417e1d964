package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNumericOutOfRange   = "22003"
)

// IsUniqueViolation reports whether err is a duplicate key error.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err references a missing parent row.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// IsNumericOutOfRange reports whether a value did not fit its column, such
// as a NUMERIC precision overflow.
func IsNumericOutOfRange(err error) bool {
	return pgCode(err) == codeNumericOutOfRange
}

// IsNoRows reports whether a QueryRow scan found nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
