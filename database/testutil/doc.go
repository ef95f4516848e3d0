// Package testutil provides an in-memory SQLite database for tests of
// encrypted models, plus fixture helpers that read and write rows as
// stored.
//
//	db := testutil.NewComponent().
//		WithEncryptor(enc).
//		WithModels(&Patient{})
//	roottestutil.T(t).Setup(db)
//
//	testutil.MustCreate(t, db.DB(), &Patient{SSN: "123"})
//	testutil.AssertEncrypted(t, db.DB(), "patients", "ssn", 1, "123")
//
// Snapshot and Restore copy ciphertext verbatim, so a restored database
// decrypts with the same key.
package testutil
