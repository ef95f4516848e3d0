// Package gormcrypt runs field encryption inside GORM.
//
// The Plugin registers callbacks around gorm:create, gorm:update and
// gorm:query. Marked fields are encrypted right before the row is built and
// restored right after it is written, so model hooks and application code
// only ever see plaintext. Query results are decrypted before AfterFind
// hooks and preloads run. Marked columns a query leaves out through Select
// or Omit stay as loaded.
//
//	enc, _ := encryption.New(secret)
//	plugin := gormcrypt.New(enc, gormcrypt.WithLogger(log))
//	if err := db.Use(plugin); err != nil {
//		return err
//	}
//
// Writes accept a pointer to a model, a slice of models or a map. Updates
// through a separate struct may not set encrypted fields. Results of
// Raw(...).Scan and Rows do not pass through query callbacks; call
// Plugin.Decrypt on them.
package gormcrypt
