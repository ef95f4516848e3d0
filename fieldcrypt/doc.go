// Package fieldcrypt encrypts marked struct fields transparently around a
// persistence framework's write and load lifecycle.
//
// Application code reads and writes plaintext. Before a write the
// Coordinator encrypts marked fields in place and asks the host to recompute
// its change set, so storage receives ciphertext. After the write the
// plaintext is put back and recorded as the tracked original value, so the
// object is usable and not dirty. After a load the stored ciphertext is
// decrypted and coerced to the declared type, at most once per instance.
//
// Fields are marked with the encrypted tag:
//
//	type User struct {
//		ID  uint
//		SSN string `encrypted:"string"`
//	}
//
// A Coordinator holds per-session state and must not be shared between
// sessions or goroutines. The FieldCache of per-type descriptors is
// process-wide and safe for concurrent use.
//
//	coord := fieldcrypt.NewCoordinator(enc)
//	if err := coord.BeforeWrite(ctx, host, user); err != nil { ... }
//	// host writes user
//	if err := coord.AfterWrite(ctx, host); err != nil { ... }
//
// The gormcrypt package wires a Coordinator into GORM callbacks.
package fieldcrypt
