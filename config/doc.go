// Package config loads service configuration with Viper from a YAML file,
// a .env file and the environment, then validates it.
//
//	cfg, err := config.Load("patients", config.WithEnvPrefix("FIELDCRYPT"))
//
// Environment variables are derived from mapstructure keys: with the prefix
// above, encryption.secret_key is read from FIELDCRYPT_ENCRYPTION_SECRET_KEY.
// Loading fails when no encryption secret key is configured.
package config
