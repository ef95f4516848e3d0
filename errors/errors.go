package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// As returns the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any *AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// --- Field encryption constructors ---

func fieldDetails(typeName, field string) map[string]any {
	details := map[string]any{"type": typeName}
	if field != "" {
		details["field"] = field
	}
	return details
}

// Mapping creates an AppError for a type or field the persistence layer does not map.
func Mapping(typeName, reason string) *AppError {
	return &AppError{
		Code: ErrCodeMapping, Message: fmt.Sprintf("No persistence mapping for %s: %s", typeName, reason),
		Details: map[string]any{"type": typeName},
	}
}

// EncryptionFailed creates an AppError for a field that could not be encrypted.
func EncryptionFailed(typeName, field string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeEncryptionFailed, Message: fmt.Sprintf("Could not encrypt %s.%s", typeName, field),
		Details: fieldDetails(typeName, field), Cause: cause,
	}
}

// DecryptionFailed creates an AppError for a stored value that could not be decrypted.
func DecryptionFailed(typeName, field string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecryptionFailed, Message: fmt.Sprintf("Could not decrypt %s.%s", typeName, field),
		Details: fieldDetails(typeName, field), Cause: cause,
	}
}

// FieldCoercion creates an AppError for a decrypted value that does not fit the declared type.
func FieldCoercion(typeName, field, target string, cause error) *AppError {
	details := fieldDetails(typeName, field)
	details["target_type"] = target
	return &AppError{
		Code:    ErrCodeFieldCoercion,
		Message: fmt.Sprintf("Could not convert decrypted value of %s.%s to %s", typeName, field, target),
		Details: details, Cause: cause,
	}
}

// InvalidMarker creates an AppError for an encrypted-field marker with an unknown type.
func InvalidMarker(typeName, field, value string) *AppError {
	details := fieldDetails(typeName, field)
	details["marker"] = value
	return &AppError{
		Code:    ErrCodeInvalidMarker,
		Message: fmt.Sprintf("Invalid encrypted marker %q on %s.%s", value, typeName, field),
		Details: details,
	}
}

// UnsupportedField creates an AppError for a marked field whose Go type cannot hold ciphertext.
func UnsupportedField(typeName, field, goType string) *AppError {
	details := fieldDetails(typeName, field)
	details["go_type"] = goType
	return &AppError{
		Code:    ErrCodeUnsupportedField,
		Message: fmt.Sprintf("Field %s.%s of type %s cannot hold ciphertext", typeName, field, goType),
		Details: details,
	}
}

// --- Common constructors ---

// InvalidConfig creates an AppError for configuration that failed validation.
func InvalidConfig(reason string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason)}
}

// MissingField creates an AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Details: details,
	}
}

// AlreadyExists creates a new AppError for a resource that already exists.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("A %s with these details already exists.", resource),
		Details: map[string]any{"resource": resource},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// DatabaseError creates a new AppError for a database error.
func DatabaseError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabaseError, Message: "A database error occurred. Please try again.",
		Retryable: true, Cause: cause,
	}
}

// ServiceUnavailable creates a new AppError for a dependency that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		Retryable: true, Details: map[string]any{"service": service},
	}
}
