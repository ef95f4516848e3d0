package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Service encrypts field values with AES-256-GCM.
type Service struct {
	sealer
}

// NewService creates an AES-256-GCM encryptor. The key is hashed with SHA-256
// to produce a 32-byte AES key.
func NewService(key string) (*Service, error) {
	keyBytes, err := deriveKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Service{sealer{aead: gcm}}, nil
}

// Encrypt encrypts plaintext and returns a base64-encoded result.
func (s *Service) Encrypt(plaintext string) (string, error) {
	return s.seal(plaintext)
}

// Decrypt decrypts a base64-encoded ciphertext.
func (s *Service) Decrypt(ciphertext string) (Sensitive, error) {
	return s.open(ciphertext)
}
