package encryption

import (
	"crypto/subtle"
	"fmt"

	"github.com/rs/zerolog"
)

const redacted = "[REDACTED]"

// Sensitive holds decrypted plaintext. It never prints its value: fmt verbs,
// JSON and zerolog all see a redaction marker.
type Sensitive struct {
	value string
}

// NewSensitive wraps plaintext.
func NewSensitive(plaintext string) Sensitive {
	return Sensitive{value: plaintext}
}

// Reveal returns the plaintext.
func (s Sensitive) Reveal() string { return s.value }

// Len returns the plaintext length in bytes.
func (s Sensitive) Len() int { return len(s.value) }

// Equal compares two values in constant time.
func (s Sensitive) Equal(other Sensitive) bool {
	return subtle.ConstantTimeCompare([]byte(s.value), []byte(other.value)) == 1
}

func (s Sensitive) String() string { return redacted }

func (s Sensitive) GoString() string { return "encryption.Sensitive{" + redacted + "}" }

// Format covers every verb including %x and %q, which bypass String.
func (s Sensitive) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		_, _ = f.Write([]byte(s.GoString()))
		return
	}
	_, _ = f.Write([]byte(redacted))
}

func (s Sensitive) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (s Sensitive) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (s Sensitive) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("redacted", true).Int("len", len(s.value))
}
