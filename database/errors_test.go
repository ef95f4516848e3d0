package database

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/fieldcrypt/errors"
)

func TestFromDatabase(t *testing.T) {
	encErr := apperrors.EncryptionFailed("Patient", "SSN", errors.New("bad key"))

	tests := []struct {
		name          string
		err           error
		wantCode      apperrors.ErrorCode
		wantRetryable bool
	}{
		{name: "not found", err: gorm.ErrRecordNotFound, wantCode: apperrors.ErrCodeNotFound},
		{name: "gorm duplicate", err: gorm.ErrDuplicatedKey, wantCode: apperrors.ErrCodeAlreadyExists},
		{name: "sqlite duplicate", err: errors.New("UNIQUE constraint failed: patients.id"), wantCode: apperrors.ErrCodeAlreadyExists},
		{name: "connection", err: errors.New("dial tcp: connection refused"), wantCode: apperrors.ErrCodeDatabaseError, wantRetryable: true},
		{name: "locked", err: errors.New("database is locked"), wantCode: apperrors.ErrCodeDatabaseError, wantRetryable: true},
		{name: "generic", err: errors.New("syntax error"), wantCode: apperrors.ErrCodeDatabaseError, wantRetryable: true},
		{name: "encryption failure", err: encErr, wantCode: apperrors.ErrCodeEncryptionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDatabase(tt.err, "patient")
			if got == nil {
				t.Fatal("FromDatabase() = nil")
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", got.Code, tt.wantCode)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("FromDatabase() lost cause %v", tt.err)
			}
		})
	}

	if FromDatabase(nil, "patient") != nil {
		t.Error("FromDatabase(nil) != nil")
	}
}

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		err        error
		connection bool
		retryable  bool
	}{
		{err: nil},
		{err: errors.New("driver: bad connection"), connection: true, retryable: true},
		{err: errors.New("Deadlock found when trying to get lock"), retryable: true},
		{err: errors.New("no such table: patients")},
	}
	for _, tt := range tests {
		if got := IsConnectionError(tt.err); got != tt.connection {
			t.Errorf("IsConnectionError(%v) = %v", tt.err, got)
		}
		if got := IsRetryableError(tt.err); got != tt.retryable {
			t.Errorf("IsRetryableError(%v) = %v", tt.err, got)
		}
	}
}
