// Package logger provides structured logging for fieldcrypt using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with map-based structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "billing").WithComponent("fieldcrypt")
//	log.Debug("fields encrypted", logger.Fields(logger.FieldType, "User", logger.FieldCount, 2))
//
// Field values handed to the logger must never be plaintext of encrypted
// fields. Log type names, field names and counts only.
package logger
