package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoadFixture inserts rows into table as given. Rows written this way skip
// encryption, so encrypted columns must already hold ciphertext.
func LoadFixture(db *gorm.DB, table string, data []map[string]interface{}) error {
	for _, row := range data {
		if err := db.Table(table).Create(row).Error; err != nil {
			return fmt.Errorf("failed to insert fixture row into %s: %w", table, err)
		}
	}
	return nil
}

// MustLoadFixture loads test data and fails the test on error.
func MustLoadFixture(t *testing.T, db *gorm.DB, table string, data []map[string]interface{}) {
	t.Helper()
	if err := LoadFixture(db, table, data); err != nil {
		t.Fatalf("LoadFixture failed: %v", err)
	}
}

// MustCreate writes models through GORM, and so through the encryption
// plugin when one is installed.
func MustCreate(t *testing.T, db *gorm.DB, models ...interface{}) {
	t.Helper()
	for _, m := range models {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("create %T: %v", m, err)
		}
	}
}

// TruncateTable removes all rows from a table.
func TruncateTable(db *gorm.DB, table string) error {
	if err := db.Exec("DELETE FROM ?", clause.Table{Name: table}).Error; err != nil {
		return fmt.Errorf("failed to clear table %s: %w", table, err)
	}
	return nil
}

// TruncateAllTables removes all rows from all tables in the database.
func TruncateAllTables(db *gorm.DB) error {
	tables, err := GetTableNames(db)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := TruncateTable(db, table); err != nil {
			return err
		}
	}
	return nil
}

// GetTableNames returns a list of all non-system tables.
func GetTableNames(db *gorm.DB) ([]string, error) {
	var tables []string
	err := db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name").
		Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// CountRows returns the number of rows in a table.
func CountRows(db *gorm.DB, table string) (int64, error) {
	var count int64
	err := db.Table(table).Count(&count).Error
	return count, err
}

// AssertRowCount fails the test if the table doesn't have the expected row count.
func AssertRowCount(t *testing.T, db *gorm.DB, table string, expected int64) {
	t.Helper()
	count, err := CountRows(db, table)
	if err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	if count != expected {
		t.Errorf("table %s row count = %d, want %d", table, count, expected)
	}
}

// StoredValue reads one column of the row with the given primary key as
// stored, bypassing decryption.
func StoredValue(db *gorm.DB, table, column string, id interface{}) (sql.NullString, error) {
	var v sql.NullString
	err := db.Table(table).Select(column).Where("id = ?", id).Row().Scan(&v)
	return v, err
}

// AssertEncrypted fails the test if the stored column is null or equals
// plaintext.
func AssertEncrypted(t *testing.T, db *gorm.DB, table, column string, id interface{}, plaintext string) {
	t.Helper()
	v, err := StoredValue(db, table, column, id)
	if err != nil {
		t.Fatalf("read %s.%s: %v", table, column, err)
	}
	if !v.Valid {
		t.Fatalf("%s.%s is null", table, column)
	}
	if v.String == plaintext {
		t.Errorf("%s.%s stored as plaintext %q", table, column, plaintext)
	}
}
