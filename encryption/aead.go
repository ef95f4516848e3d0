package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	apperrors "github.com/kbukum/fieldcrypt/errors"
)

// errCiphertextTooShort is returned when the decoded payload cannot hold a nonce.
var errCiphertextTooShort = errors.New("ciphertext too short")

// sealer holds an AEAD and implements the shared nonce||sealed base64 framing.
type sealer struct {
	aead cipher.AEAD
}

// deriveKey hashes a passphrase to a 32-byte key.
func deriveKey(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, apperrors.InvalidConfig("secret key must not be empty")
	}
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:], nil
}

func (s sealer) seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s sealer) open(ciphertext string) (Sensitive, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return Sensitive{}, fmt.Errorf("decode base64: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize+s.aead.Overhead() {
		return Sensitive{}, errCiphertextTooShort
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return Sensitive{}, fmt.Errorf("decrypt: %w", err)
	}
	return NewSensitive(string(plaintext)), nil
}
