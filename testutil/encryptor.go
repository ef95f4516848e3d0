package testutil

import (
	"errors"
	"strings"
	"sync"

	"github.com/kbukum/fieldcrypt/encryption"
)

const (
	cipherPrefix = "enc("
	cipherSuffix = ")"
)

// ErrInjected is returned by an Encryptor told to fail.
var ErrInjected = errors.New("injected cipher failure")

var _ encryption.Encryptor = (*Encryptor)(nil)

// Encryptor is a deterministic, reversible encryptor for tests.
type Encryptor struct {
	mu          sync.Mutex
	encrypts    int
	decrypts    int
	failEncrypt map[string]bool
	failDecrypt map[string]bool
}

// NewEncryptor creates a test encryptor.
func NewEncryptor() *Encryptor {
	return &Encryptor{
		failEncrypt: make(map[string]bool),
		failDecrypt: make(map[string]bool),
	}
}

// Cipher returns the ciphertext Encrypt produces for plaintext.
func Cipher(plaintext string) string {
	return cipherPrefix + plaintext + cipherSuffix
}

func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.encrypts++
	if e.failEncrypt[plaintext] {
		return "", ErrInjected
	}
	return Cipher(plaintext), nil
}

func (e *Encryptor) Decrypt(ciphertext string) (encryption.Sensitive, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decrypts++
	if e.failDecrypt[ciphertext] {
		return encryption.Sensitive{}, ErrInjected
	}
	if !strings.HasPrefix(ciphertext, cipherPrefix) || !strings.HasSuffix(ciphertext, cipherSuffix) {
		return encryption.Sensitive{}, errors.New("not a test ciphertext")
	}
	return encryption.NewSensitive(strings.TrimSuffix(strings.TrimPrefix(ciphertext, cipherPrefix), cipherSuffix)), nil
}

// FailEncrypt makes Encrypt fail for plaintext.
func (e *Encryptor) FailEncrypt(plaintext string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failEncrypt[plaintext] = true
}

// FailDecrypt makes Decrypt fail for ciphertext.
func (e *Encryptor) FailDecrypt(ciphertext string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failDecrypt[ciphertext] = true
}

// Encrypts returns the number of Encrypt calls.
func (e *Encryptor) Encrypts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encrypts
}

// Decrypts returns the number of Decrypt calls.
func (e *Encryptor) Decrypts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decrypts
}

// ResetCounts zeroes the call counters.
func (e *Encryptor) ResetCounts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.encrypts, e.decrypts = 0, 0
}
