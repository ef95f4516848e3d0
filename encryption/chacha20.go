package encryption

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20Service encrypts field values with ChaCha20-Poly1305.
type ChaCha20Service struct {
	sealer
}

// NewChaCha20 creates a ChaCha20-Poly1305 encryptor.
// The key is hashed with SHA-256 to produce a 32-byte key.
func NewChaCha20(key string) (*ChaCha20Service, error) {
	keyBytes, err := deriveKey(key)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create chacha20: %w", err)
	}

	return &ChaCha20Service{sealer{aead: aead}}, nil
}

// Encrypt encrypts plaintext and returns a base64-encoded result.
func (s *ChaCha20Service) Encrypt(plaintext string) (string, error) {
	return s.seal(plaintext)
}

// Decrypt decrypts a base64-encoded ciphertext.
func (s *ChaCha20Service) Decrypt(ciphertext string) (Sensitive, error) {
	return s.open(ciphertext)
}
