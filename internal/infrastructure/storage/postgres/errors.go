package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"forestledger/internal/core/apperror"
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateCheckViolation  = "23514"
	sqlStateFKViolation     = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != sqlStateUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateCheckViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateFKViolation
}

// WrapDBError converts driver errors without a domain meaning into DATABASE_ERROR.
// AppErrors pass through unchanged.
func WrapDBError(err error, message string) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return &apperror.AppError{
		Code:       apperror.CodeDatabase,
		Message:    message,
		HTTPStatus: 500,
		Err:        err,
	}
}
