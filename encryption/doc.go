// Package encryption provides the symmetric ciphers used to protect marked
// model fields at rest.
//
// Two AEAD implementations are available: AES-256-GCM (default) and
// ChaCha20-Poly1305. Passphrases are hashed with SHA-256 to the 32-byte key
// both ciphers need. Ciphertext is the base64 encoding of nonce||sealed.
//
// Decrypted values are returned as Sensitive, which redacts itself whenever it
// is formatted, marshaled to JSON or logged through zerolog. Call Reveal to
// get the plaintext.
//
// # Usage
//
//	enc, err := encryption.New("my-secret-passphrase")
//	ciphertext, err := enc.Encrypt("123-45-6789")
//	plain, err := enc.Decrypt(ciphertext)
//	ssn := plain.Reveal()
package encryption
