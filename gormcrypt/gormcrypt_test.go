package gormcrypt_test

import (
	"bytes"
	"context"
	"database/sql"
	"reflect"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/fieldcrypt/encryption"
	apperrors "github.com/kbukum/fieldcrypt/errors"
	"github.com/kbukum/fieldcrypt/fieldcrypt"
	"github.com/kbukum/fieldcrypt/gormcrypt"
	"github.com/kbukum/fieldcrypt/logger"
	"github.com/kbukum/fieldcrypt/testutil"
)

type Patient struct {
	ID       uint
	Name     string
	SSN      string  `encrypted:"string"`
	Nickname *string `encrypted:"string"`
	Age      string  `encrypted:"integer"`
	Visits   []Visit
}

type Visit struct {
	ID        uint
	PatientID uint
	Diagnosis string `encrypted:""`
}

type Note struct {
	ID   uint
	Body string
}

type env struct {
	db     *gorm.DB
	plugin *gormcrypt.Plugin
	enc    *testutil.Encryptor
}

func newEnv(t *testing.T, opts ...gormcrypt.Option) *env {
	t.Helper()
	enc := testutil.NewEncryptor()
	return newEnvWith(t, enc, enc, opts...)
}

func newEnvWith(t *testing.T, enc encryption.Encryptor, counter *testutil.Encryptor, opts ...gormcrypt.Option) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	opts = append([]gormcrypt.Option{gormcrypt.WithCache(fieldcrypt.NewFieldCache())}, opts...)
	plugin := gormcrypt.New(enc, opts...)
	if err := db.Use(plugin); err != nil {
		t.Fatalf("install plugin: %v", err)
	}
	if err := db.AutoMigrate(&Patient{}, &Visit{}, &Note{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &env{db: db, plugin: plugin, enc: counter}
}

func (e *env) stored(t *testing.T, table, column string, id uint) sql.NullString {
	t.Helper()
	var v sql.NullString
	if err := e.db.Table(table).Select(column).Where("id = ?", id).Row().Scan(&v); err != nil {
		t.Fatalf("read %s.%s: %v", table, column, err)
	}
	return v
}

func (e *env) create(t *testing.T, p *Patient) {
	t.Helper()
	if err := e.db.Create(p).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestCreateStoresCiphertext(t *testing.T) {
	e := newEnv(t)
	p := &Patient{Name: "ada", SSN: "123-45-6789", Age: "42"}
	e.create(t, p)

	if p.SSN != "123-45-6789" || p.Age != "42" {
		t.Errorf("plaintext not restored: %+v", p)
	}
	if got := e.stored(t, "patients", "ssn", p.ID); got.String != testutil.Cipher("123-45-6789") {
		t.Errorf("stored ssn = %q", got.String)
	}
	if got := e.stored(t, "patients", "age", p.ID); got.String != testutil.Cipher("42") {
		t.Errorf("stored age = %q", got.String)
	}
	if got := e.stored(t, "patients", "nickname", p.ID); got.Valid {
		t.Errorf("nil nickname stored as %q, want NULL", got.String)
	}
	if got := e.stored(t, "patients", "name", p.ID); got.String != "ada" {
		t.Errorf("unmarked column changed: %q", got.String)
	}
}

func TestQueryDecrypts(t *testing.T) {
	e := newEnv(t)
	e.create(t, &Patient{Name: "ada", SSN: "111", Nickname: strPtr("a"), Age: "30"})
	e.create(t, &Patient{Name: "bob", SSN: "222", Age: "40"})

	t.Run("first", func(t *testing.T) {
		var got Patient
		if err := e.db.Where("name = ?", "ada").First(&got).Error; err != nil {
			t.Fatalf("first: %v", err)
		}
		if got.SSN != "111" || got.Age != "30" || got.Nickname == nil || *got.Nickname != "a" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("slice", func(t *testing.T) {
		var got []Patient
		if err := e.db.Order("id").Find(&got).Error; err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) != 2 || got[0].SSN != "111" || got[1].SSN != "222" {
			t.Errorf("got %+v", got)
		}
		if got[1].Nickname != nil {
			t.Error("NULL nickname should stay nil")
		}
	})

	t.Run("pointer slice", func(t *testing.T) {
		var got []*Patient
		if err := e.db.Order("id").Find(&got).Error; err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) != 2 || got[0].SSN != "111" || got[1].Age != "40" {
			t.Errorf("got %+v", got)
		}
	})
}

func TestCreateBatch(t *testing.T) {
	e := newEnv(t)
	batch := []Patient{{Name: "a", SSN: "1", Age: "1"}, {Name: "b", SSN: "2", Age: "2"}}
	if err := e.db.Create(&batch).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, p := range batch {
		if got := e.stored(t, "patients", "ssn", p.ID); got.String != testutil.Cipher(p.SSN) {
			t.Errorf("stored ssn of %d = %q", p.ID, got.String)
		}
	}
	if batch[0].SSN != "1" || batch[1].SSN != "2" {
		t.Errorf("plaintext not restored: %+v", batch)
	}
}

func TestSaveUpdatesCiphertext(t *testing.T) {
	e := newEnv(t)
	p := &Patient{Name: "ada", SSN: "old", Age: "1"}
	e.create(t, p)

	var got Patient
	if err := e.db.First(&got, p.ID).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	got.SSN = "new"
	if err := e.db.Save(&got).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	if got.SSN != "new" {
		t.Errorf("SSN = %q after save", got.SSN)
	}
	if s := e.stored(t, "patients", "ssn", p.ID); s.String != testutil.Cipher("new") {
		t.Errorf("stored ssn = %q", s.String)
	}
}

func TestUpdateWithMap(t *testing.T) {
	e := newEnv(t)
	p := &Patient{Name: "ada", SSN: "old", Age: "1"}
	e.create(t, p)

	values := map[string]any{"ssn": "999", "name": "grace"}
	if err := e.db.Model(p).Updates(values).Error; err != nil {
		t.Fatalf("updates: %v", err)
	}
	if s := e.stored(t, "patients", "ssn", p.ID); s.String != testutil.Cipher("999") {
		t.Errorf("stored ssn = %q", s.String)
	}
	if values["ssn"] != "999" {
		t.Errorf("map value = %v, want plaintext restored", values["ssn"])
	}
	if p.SSN != "999" || p.Name != "grace" {
		t.Errorf("model = %+v", p)
	}

	t.Run("single column by field name", func(t *testing.T) {
		if err := e.db.Model(p).Update("Nickname", "nick").Error; err != nil {
			t.Fatalf("update: %v", err)
		}
		if s := e.stored(t, "patients", "nickname", p.ID); s.String != testutil.Cipher("nick") {
			t.Errorf("stored nickname = %q", s.String)
		}
		if p.Nickname == nil || *p.Nickname != "nick" {
			t.Errorf("nickname = %v", p.Nickname)
		}
	})

	t.Run("bulk update through zero model", func(t *testing.T) {
		err := e.db.Model(&Patient{}).Where("id = ?", p.ID).Update("ssn", "bulk").Error
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if s := e.stored(t, "patients", "ssn", p.ID); s.String != testutil.Cipher("bulk") {
			t.Errorf("stored ssn = %q", s.String)
		}
		if s := e.stored(t, "patients", "age", p.ID); s.String != testutil.Cipher("1") {
			t.Errorf("unrelated column changed: %q", s.String)
		}
	})
}

func TestUpdateWithSeparateStruct(t *testing.T) {
	e := newEnv(t)
	p := &Patient{Name: "ada", SSN: "old", Age: "1"}
	e.create(t, p)

	err := e.db.Model(p).Updates(Patient{SSN: "leak"}).Error
	if !apperrors.HasCode(err, apperrors.ErrCodeMapping) {
		t.Fatalf("expected MAPPING_ERROR, got %v", err)
	}
	if s := e.stored(t, "patients", "ssn", p.ID); s.String != testutil.Cipher("old") {
		t.Errorf("stored ssn = %q", s.String)
	}

	if err := e.db.Model(p).Updates(Patient{Name: "grace"}).Error; err != nil {
		t.Fatalf("updates without encrypted fields: %v", err)
	}
	if s := e.stored(t, "patients", "name", p.ID); s.String != "grace" {
		t.Errorf("stored name = %q", s.String)
	}
}

func TestWriteFailureRestoresPlaintext(t *testing.T) {
	t.Run("encryption", func(t *testing.T) {
		e := newEnv(t)
		e.enc.FailEncrypt("bad")
		p := &Patient{Name: "ada", SSN: "good", Age: "bad"}
		err := e.db.Create(p).Error
		if !apperrors.HasCode(err, apperrors.ErrCodeEncryptionFailed) {
			t.Fatalf("expected ENCRYPTION_FAILED, got %v", err)
		}
		if p.SSN != "good" || p.Age != "bad" {
			t.Errorf("plaintext not restored: %+v", p)
		}
		var n int64
		e.db.Model(&Patient{}).Count(&n)
		if n != 0 {
			t.Errorf("%d rows written", n)
		}
	})

	t.Run("database", func(t *testing.T) {
		e := newEnv(t)
		first := &Patient{Name: "ada", SSN: "one", Age: "1"}
		e.create(t, first)

		dup := &Patient{ID: first.ID, Name: "dup", SSN: "two", Age: "2"}
		if err := e.db.Create(dup).Error; err == nil {
			t.Fatal("expected duplicate key error")
		}
		if dup.SSN != "two" || dup.Age != "2" {
			t.Errorf("plaintext not restored after failed insert: %+v", dup)
		}
	})
}

func TestLoadFailures(t *testing.T) {
	t.Run("decryption", func(t *testing.T) {
		e := newEnv(t)
		if err := e.db.Exec("INSERT INTO patients (name, ssn, age) VALUES (?, ?, ?)",
			"ada", "not-ciphertext", testutil.Cipher("1")).Error; err != nil {
			t.Fatalf("insert: %v", err)
		}
		var got Patient
		err := e.db.First(&got).Error
		if !apperrors.HasCode(err, apperrors.ErrCodeDecryptionFailed) {
			t.Fatalf("expected DECRYPTION_FAILED, got %v", err)
		}
	})

	t.Run("coercion", func(t *testing.T) {
		e := newEnv(t)
		if err := e.db.Exec("INSERT INTO patients (name, ssn, age) VALUES (?, ?, ?)",
			"ada", testutil.Cipher("1"), testutil.Cipher("forty")).Error; err != nil {
			t.Fatalf("insert: %v", err)
		}
		var got Patient
		err := e.db.First(&got).Error
		if !apperrors.HasCode(err, apperrors.ErrCodeFieldCoercion) {
			t.Fatalf("expected FIELD_COERCION_FAILED, got %v", err)
		}
		if got.Age != testutil.Cipher("forty") || got.SSN != testutil.Cipher("1") {
			t.Errorf("stored values should be left in place: %+v", got)
		}
		if strings.Contains(err.Error(), "forty") {
			t.Errorf("error leaks plaintext: %v", err)
		}
	})
}

func TestSessionDecryptsOnce(t *testing.T) {
	e := newEnv(t)
	p := &Patient{Name: "ada", SSN: "111", Age: "5"}
	e.create(t, p)

	session := e.plugin.NewSession()
	defer session.Close()
	tx := session.Bind(e.db)

	var got Patient
	if err := tx.First(&got, p.ID).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if !session.Coordinator().Decoded(&got) {
		t.Fatal("loaded object should be decoded")
	}

	e.enc.ResetCounts()
	ctx := gormcrypt.ContextWithSession(context.Background(), session)
	if err := e.plugin.Decrypt(ctx, &got); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if e.enc.Decrypts() != 0 || got.SSN != "111" {
		t.Errorf("decoded object decrypted again: %d calls, SSN=%q", e.enc.Decrypts(), got.SSN)
	}

	if err := tx.First(&got, p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if e.enc.Decrypts() != 2 || got.SSN != "111" {
		t.Errorf("reload into the same object: %d decrypts, SSN=%q", e.enc.Decrypts(), got.SSN)
	}
}

func TestSessionChangeTracking(t *testing.T) {
	e := newEnv(t)
	p := &Patient{Name: "ada", SSN: "111", Age: "5"}
	e.create(t, p)

	session := e.plugin.NewSession()
	defer session.Close()
	tx := session.Bind(e.db)

	var got Patient
	if err := tx.First(&got, p.ID).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if dirty, err := session.IsDirty(&got); err != nil || dirty {
		t.Fatalf("freshly loaded object dirty=%v err=%v", dirty, err)
	}
	if v, ok := session.Original(&got, "SSN"); !ok || v != "111" {
		t.Errorf("original = %v, %v", v, ok)
	}

	got.SSN = "changed"
	if dirty, _ := session.IsDirty(&got); !dirty {
		t.Error("modified object should be dirty")
	}
	if err := tx.Save(&got).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	if dirty, _ := session.IsDirty(&got); dirty {
		t.Error("saved object should be clean")
	}
	if v, _ := session.Original(&got, "SSN"); v != "changed" {
		t.Errorf("original after save = %v", v)
	}

	session.Close()
	if _, ok := session.Original(&got, "SSN"); ok {
		t.Error("Close should drop originals")
	}
}

func TestSessionTransaction(t *testing.T) {
	e := newEnv(t)
	session := e.plugin.NewSession()
	defer session.Close()

	p := &Patient{Name: "ada", SSN: "tx", Age: "1"}
	err := session.Bind(e.db).Transaction(func(tx *gorm.DB) error {
		if _, ok := gormcrypt.SessionFromContext(tx.Statement.Context); !ok {
			t.Error("transaction lost the session")
		}
		return tx.Create(p).Error
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if s := e.stored(t, "patients", "ssn", p.ID); s.String != testutil.Cipher("tx") {
		t.Errorf("stored ssn = %q", s.String)
	}
	if !session.Coordinator().Decoded(p) {
		t.Error("written object should be decoded in the session")
	}
}

func TestAssociations(t *testing.T) {
	e := newEnv(t)
	p := &Patient{
		Name: "ada", SSN: "1", Age: "1",
		Visits: []Visit{{Diagnosis: "flu"}, {Diagnosis: "cold"}},
	}
	e.create(t, p)

	for _, v := range p.Visits {
		if s := e.stored(t, "visits", "diagnosis", v.ID); s.String != testutil.Cipher(v.Diagnosis) {
			t.Errorf("stored diagnosis = %q", s.String)
		}
	}
	if p.Visits[0].Diagnosis != "flu" {
		t.Errorf("association plaintext not restored: %+v", p.Visits)
	}

	var got Patient
	if err := e.db.Preload("Visits").First(&got, p.ID).Error; err != nil {
		t.Fatalf("preload: %v", err)
	}
	if got.SSN != "1" || len(got.Visits) != 2 || got.Visits[0].Diagnosis != "flu" || got.Visits[1].Diagnosis != "cold" {
		t.Errorf("got %+v", got)
	}
}

func TestRawScanNeedsDecrypt(t *testing.T) {
	e := newEnv(t)
	e.create(t, &Patient{Name: "ada", SSN: "raw", Age: "1"})

	var rows []Patient
	if err := e.db.Raw("SELECT * FROM patients").Scan(&rows).Error; err != nil {
		t.Fatalf("raw: %v", err)
	}
	if len(rows) != 1 || rows[0].SSN != testutil.Cipher("raw") {
		t.Fatalf("raw scan = %+v", rows)
	}
	if err := e.plugin.Decrypt(context.Background(), &rows); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if rows[0].SSN != "raw" || rows[0].Age != "1" {
		t.Errorf("decrypted = %+v", rows[0])
	}
}

func TestDecryptRejectsValueDestination(t *testing.T) {
	e := newEnv(t)
	p := Patient{SSN: testutil.Cipher("x")}

	err := e.plugin.Decrypt(context.Background(), p)
	if !apperrors.HasCode(err, apperrors.ErrCodeMapping) {
		t.Fatalf("Decrypt(struct value) error = %v, want mapping error", err)
	}
	if err := e.plugin.Decrypt(context.Background(), &p); err != nil || p.SSN != "x" {
		t.Errorf("Decrypt(pointer) = %v, SSN=%q", err, p.SSN)
	}
}

func TestPartialLoads(t *testing.T) {
	tests := []struct {
		name  string
		query func(db *gorm.DB) *gorm.DB
		check func(t *testing.T, p Patient)
	}{
		{
			name:  "select without marked columns",
			query: func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") },
			check: func(t *testing.T, p Patient) {
				if p.Name != "ada" || p.SSN != "" || p.Age != "" {
					t.Errorf("loaded = %+v", p)
				}
			},
		},
		{
			name:  "select one marked column",
			query: func(db *gorm.DB) *gorm.DB { return db.Select("id", "age") },
			check: func(t *testing.T, p Patient) {
				if p.Age != "36" || p.SSN != "" {
					t.Errorf("loaded = %+v", p)
				}
			},
		},
		{
			name:  "omit marked column",
			query: func(db *gorm.DB) *gorm.DB { return db.Omit("ssn") },
			check: func(t *testing.T, p Patient) {
				if p.Name != "ada" || p.Age != "36" || p.SSN != "" {
					t.Errorf("loaded = %+v", p)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.create(t, &Patient{Name: "ada", SSN: "123-45-6789", Age: "36"})

			var ps []Patient
			if err := tt.query(e.db).Find(&ps).Error; err != nil {
				t.Fatalf("find: %v", err)
			}
			if len(ps) != 1 {
				t.Fatalf("rows = %d, want 1", len(ps))
			}
			tt.check(t, ps[0])
		})
	}
}

func TestNullColumnsAreSkipped(t *testing.T) {
	e := newEnv(t)
	err := e.db.Exec("INSERT INTO patients (name, ssn, nickname, age) VALUES (?, NULL, NULL, ?)",
		"bob", testutil.Cipher("7")).Error
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	before := e.enc.Decrypts()
	var p Patient
	if err := e.db.Where("name = ?", "bob").First(&p).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if p.SSN != "" || p.Nickname != nil || p.Age != "7" {
		t.Errorf("loaded = %+v", p)
	}
	if got := e.enc.Decrypts() - before; got != 1 {
		t.Errorf("decrypt calls = %d, want 1", got)
	}
}

func TestUnmarkedModelUntouched(t *testing.T) {
	e := newEnv(t)
	n := &Note{Body: "hello"}
	if err := e.db.Create(n).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Note
	if err := e.db.First(&got, n.ID).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if got.Body != "hello" || e.enc.Encrypts() != 0 || e.enc.Decrypts() != 0 {
		t.Errorf("unmarked model went through the cipher: %+v, %d/%d", got, e.enc.Encrypts(), e.enc.Decrypts())
	}
}

func TestRealCipherRoundTrip(t *testing.T) {
	for _, alg := range []encryption.Algorithm{encryption.AlgorithmAESGCM, encryption.AlgorithmChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			enc, err := encryption.New("test-secret", encryption.WithAlgorithm(alg))
			if err != nil {
				t.Fatalf("new encryptor: %v", err)
			}
			e := newEnvWith(t, enc, testutil.NewEncryptor())

			p := &Patient{Name: "ada", SSN: "123-45-6789", Nickname: strPtr("A"), Age: "7"}
			e.create(t, p)
			if s := e.stored(t, "patients", "ssn", p.ID); s.String == "" || s.String == p.SSN {
				t.Errorf("stored ssn = %q", s.String)
			}

			var got Patient
			if err := e.db.First(&got, p.ID).Error; err != nil {
				t.Fatalf("first: %v", err)
			}
			if got.SSN != p.SSN || *got.Nickname != "A" || got.Age != "7" {
				t.Errorf("round trip = %+v", got)
			}
		})
	}
}

func TestInvalidMarkerFailsStatement(t *testing.T) {
	type Broken struct {
		ID    uint
		Token string `encrypted:"money"`
	}
	e := newEnv(t)
	if err := e.db.AutoMigrate(&Broken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	err := e.db.Create(&Broken{Token: "x"}).Error
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidMarker) {
		t.Fatalf("expected INVALID_MARKER, got %v", err)
	}
}

func TestPluginLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", "test")
	e := newEnv(t, gormcrypt.WithLogger(log))

	if !strings.Contains(buf.String(), "field encryption plugin installed") {
		t.Errorf("missing install log: %s", buf.String())
	}
	e.create(t, &Patient{Name: "ada", SSN: "secret-ssn", Age: "1"})
	var got Patient
	if err := e.db.First(&got).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if strings.Contains(buf.String(), "secret-ssn") {
		t.Error("logs contain plaintext")
	}
}

type Address struct {
	Street string `encrypted:""`
	City   string
}

type Customer struct {
	ID      uint
	Email   *string `encrypted:"string" gorm:"not null"`
	Home    Address `gorm:"embedded;embeddedPrefix:home_"`
	Ignored string  `gorm:"-" encrypted:""`
}

func TestSchema(t *testing.T) {
	s := gormcrypt.NewSchema(nil)
	typ := reflect.TypeOf(Customer{})

	fields, err := s.Fields(typ)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	want := []string{"ID", "Email", "Street", "City"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("fields = %v, want %v", names, want)
	}

	tests := []struct {
		field    string
		nullable bool
	}{
		{"ID", false},
		{"Email", false},
		{"Street", true},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			m, err := s.FieldMapping(typ, tt.field)
			if err != nil {
				t.Fatalf("mapping: %v", err)
			}
			if m.Nullable != tt.nullable {
				t.Errorf("nullable = %v, want %v", m.Nullable, tt.nullable)
			}
		})
	}

	if _, err := s.FieldMapping(typ, "Ignored"); !apperrors.HasCode(err, apperrors.ErrCodeMapping) {
		t.Errorf("expected MAPPING_ERROR for ignored field, got %v", err)
	}
	if _, err := s.Fields(reflect.TypeOf(0)); !apperrors.HasCode(err, apperrors.ErrCodeMapping) {
		t.Errorf("expected MAPPING_ERROR for non-struct, got %v", err)
	}

	c := &Customer{Home: Address{Street: "main"}}
	street := fields[2].Accessor
	if v, err := street.Get(c); err != nil || v != "main" {
		t.Errorf("Get = %v, %v", v, err)
	}
	if err := street.Set(c, "side"); err != nil || c.Home.Street != "side" {
		t.Errorf("Set: %v, street=%q", err, c.Home.Street)
	}
}

func TestEmbeddedEncryptedField(t *testing.T) {
	e := newEnv(t)
	if err := e.db.AutoMigrate(&Customer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	c := &Customer{Email: strPtr("a@b.c"), Home: Address{Street: "main", City: "x"}}
	if err := e.db.Create(c).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if s := e.stored(t, "customers", "home_street", c.ID); s.String != testutil.Cipher("main") {
		t.Errorf("stored street = %q", s.String)
	}
	if s := e.stored(t, "customers", "email", c.ID); s.String != testutil.Cipher("a@b.c") {
		t.Errorf("stored email = %q", s.String)
	}

	var got Customer
	if err := e.db.First(&got, c.ID).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if got.Home.Street != "main" || got.Home.City != "x" || *got.Email != "a@b.c" {
		t.Errorf("got %+v", got)
	}
}
