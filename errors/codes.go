package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Field encryption errors
const (
	// ErrCodeMapping indicates the persistence layer has no mapping for a type or field.
	ErrCodeMapping ErrorCode = "MAPPING_ERROR"
	// ErrCodeEncryptionFailed indicates the cipher could not encrypt a field value.
	ErrCodeEncryptionFailed ErrorCode = "ENCRYPTION_FAILED"
	// ErrCodeDecryptionFailed indicates the cipher could not decrypt a stored value.
	ErrCodeDecryptionFailed ErrorCode = "DECRYPTION_FAILED"
	// ErrCodeFieldCoercion indicates a decrypted value cannot be cast to the declared type.
	ErrCodeFieldCoercion ErrorCode = "FIELD_COERCION_FAILED"
	// ErrCodeInvalidMarker indicates an encrypted field marker declares an unknown type.
	ErrCodeInvalidMarker ErrorCode = "INVALID_MARKER"
	// ErrCodeUnsupportedField indicates a marked field cannot hold ciphertext.
	ErrCodeUnsupportedField ErrorCode = "UNSUPPORTED_FIELD"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeMissingField indicates a required configuration field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Infrastructure errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeDatabaseError indicates a database error.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrCodeServiceUnavailable indicates a dependency is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Crypt failures are never retryable.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeDatabaseError:      true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
