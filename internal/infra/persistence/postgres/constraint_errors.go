package postgres

import (
	"strings"

	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes raised by the constraints on users and foods.
const (
	pgUniqueViolation  = "23505"
	pgNotNullViolation = "23502"
	pgCheckViolation   = "23514"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

// Helper functions for constraint error checking. The message fallbacks cover
// drivers that do not translate errors, SQLite among them.
func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || pgErrorCode(err) == pgUniqueViolation {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "duplicate key")
}

func isNotNullConstraintViolation(err error) bool {
	if pgErrorCode(err) == pgNotNullViolation {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "not null constraint")
}

func isCheckConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) || pgErrorCode(err) == pgCheckViolation {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}

// translateStoreError converts a driver error into the domain error vocabulary.
// notFound is returned for gorm.ErrRecordNotFound, conflict for unique violations.
func translateStoreError(err error, notFound, conflict *domainerrors.BaseError, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.IsDeadline(err):
		return domainerrors.ErrTimeout.WrapMessage(op)
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case isUniqueConstraintViolation(err) && conflict != nil:
		return conflict
	case isNotNullConstraintViolation(err), isCheckConstraintViolation(err):
		return domainerrors.ErrValidationFailed.WithDetails(op + ": " + err.Error())
	default:
		return domainerrors.NewDatabaseExecuteError(err, op)
	}
}
