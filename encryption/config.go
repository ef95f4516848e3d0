package encryption

import (
	"fmt"

	apperrors "github.com/kbukum/fieldcrypt/errors"
)

// Config contains field encryption settings.
type Config struct {
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key" validate:"required"`
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm" validate:"omitempty,oneof=aes-256-gcm chacha20-poly1305"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = string(AlgorithmAESGCM)
	}
}

// Validate checks that a secret key is set and the algorithm is known.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return apperrors.InvalidConfig("encryption.secret_key is required and cannot be empty")
	}
	switch Algorithm(c.Algorithm) {
	case "", AlgorithmAESGCM, AlgorithmChaCha20:
		return nil
	default:
		return apperrors.InvalidConfig(fmt.Sprintf("encryption.algorithm must be %s or %s (got: %s)",
			AlgorithmAESGCM, AlgorithmChaCha20, c.Algorithm))
	}
}
