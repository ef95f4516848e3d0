package encryption

import (
	"fmt"

	apperrors "github.com/kbukum/fieldcrypt/errors"
)

// Encryptor is the pluggable cipher behind field encryption.
// Encrypt must be decryptable by Decrypt of the same instance.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (Sensitive, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM (default, widely supported).
	AlgorithmAESGCM Algorithm = "aes-256-gcm"

	// AlgorithmChaCha20 is ChaCha20-Poly1305 (fast on CPUs without AES-NI).
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Option configures the encryption service.
type Option func(*options)

type options struct {
	algorithm Algorithm
}

// WithAlgorithm selects the encryption algorithm (default: AES-256-GCM).
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// New creates an Encryptor with the given key and options.
// An empty key is rejected.
func New(key string, opts ...Option) (Encryptor, error) {
	o := &options{algorithm: AlgorithmAESGCM}
	for _, opt := range opts {
		opt(o)
	}

	switch o.algorithm {
	case AlgorithmAESGCM:
		return NewService(key)
	case AlgorithmChaCha20:
		return NewChaCha20(key)
	default:
		return nil, apperrors.InvalidConfig(fmt.Sprintf("unsupported algorithm %q", o.algorithm))
	}
}

// NewFromConfig creates an Encryptor from a validated Config.
func NewFromConfig(cfg Config) (Encryptor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(cfg.SecretKey, WithAlgorithm(Algorithm(cfg.Algorithm)))
}
