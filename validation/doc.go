// Package validation checks configuration structs against their `validate`
// tags with go-playground/validator and reports failures as INVALID_CONFIG
// AppErrors keyed by configuration path.
//
//	type Config struct {
//		SecretKey string `mapstructure:"secret_key" validate:"required"`
//	}
//	err := validation.Struct(cfg) // "secret_key is required"
package validation
