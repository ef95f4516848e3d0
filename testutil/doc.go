// Package testutil provides test doubles and lifecycle helpers for fieldcrypt.
//
// # Crypt doubles
//
//   - Encryptor: reversible, call-counting encryptor with failure injection.
//     Ciphertext has the form "enc(<plaintext>)" so tests can assert on what
//     storage would receive.
//   - Schema: wraps a fieldcrypt.MetadataProvider and counts enumerations.
//   - Tracker: records RecomputeChangeSet and SetTrackedOriginalValue calls.
//
//	enc := testutil.NewEncryptor()
//	host := testutil.NewHost()
//	coord := fieldcrypt.NewCoordinator(enc, fieldcrypt.WithCache(fieldcrypt.NewFieldCache()))
//	err := coord.BeforeWrite(ctx, host, &user)
//
// # Components
//
// TestComponent extends component.Component with Reset/Snapshot/Restore so
// infrastructure such as the in-memory database can be reset between cases:
//
//	func TestMyFeature(t *testing.T) {
//	    testutil.T(t).Setup(dbComponent)
//	    // stopped automatically when the test ends
//	}
package testutil
