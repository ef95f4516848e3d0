// Package errors provides the structured error type used across fieldcrypt.
//
// Every failure raised by the encryption layer is an *AppError carrying a
// machine-readable ErrorCode and, where it applies, the object type and field
// name that failed. Use HasCode or errors.As to branch on them:
//
//	if errors.HasCode(err, errors.ErrCodeFieldCoercion) {
//	    // decrypted value did not fit the declared type
//	}
package errors
