package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/fieldcrypt/errors"
)

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no route to host",
		"network is unreachable",
		"connection closed",
		"connection lost",
		"driver: bad connection",
		"invalid connection",
		"sql: database is closed",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// IsRetryableError determines if a database error should trigger a retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionError(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"deadlock",
		"lock timeout",
		"database is locked",
		"too many connections",
		"connection pool exhausted",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError checks if the error is a GORM duplicate-key violation.
// Drivers only report it when gorm.Config.TranslateError is set; the raw
// sqlite message is matched as well.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// FromDatabase converts a database error to an AppError. Errors that are
// already AppErrors, such as field encryption failures raised inside a
// statement, are returned unchanged.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}

	if IsNotFoundError(err) {
		return apperrors.NotFound(resource, "").WithCause(err)
	}

	if IsDuplicateError(err) {
		return apperrors.AlreadyExists(resource).WithCause(err)
	}

	if IsConnectionError(err) {
		return (&apperrors.AppError{
			Code:      apperrors.ErrCodeDatabaseError,
			Message:   "Database is temporarily unavailable. Please try again.",
			Retryable: true,
		}).WithCause(err)
	}

	if IsRetryableError(err) {
		return (&apperrors.AppError{
			Code:      apperrors.ErrCodeDatabaseError,
			Message:   fmt.Sprintf("Database operation on %s failed. Please try again.", resource),
			Retryable: true,
		}).WithCause(err)
	}

	return apperrors.DatabaseError(err)
}
