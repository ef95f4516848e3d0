package testutil

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/fieldcrypt/component"
	"github.com/kbukum/fieldcrypt/encryption"
	"github.com/kbukum/fieldcrypt/fieldcrypt"
	"github.com/kbukum/fieldcrypt/gormcrypt"
	"github.com/kbukum/fieldcrypt/testutil"
)

// Component is a test database backed by in-memory SQLite. It implements
// both component.Component and testutil.TestComponent.
type Component struct {
	db      *gorm.DB
	models  []interface{}
	plugin  *gormcrypt.Plugin
	started bool
	mu      sync.RWMutex
}

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
)

// NewComponent creates a new test database component.
func NewComponent() *Component {
	return &Component{}
}

// WithModels registers models for auto-migration on Start.
func (c *Component) WithModels(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithEncryptor installs field encryption on Start. Each component gets its
// own descriptor cache unless opts supply one.
func (c *Component) WithEncryptor(enc encryption.Encryptor, opts ...gormcrypt.Option) *Component {
	opts = append([]gormcrypt.Option{gormcrypt.WithCache(fieldcrypt.NewFieldCache())}, opts...)
	c.plugin = gormcrypt.New(enc, opts...)
	return c
}

// Plugin returns the installed encryption plugin, or nil.
func (c *Component) Plugin() *gormcrypt.Plugin {
	return c.plugin
}

// DB returns the underlying *gorm.DB, or nil if not started.
func (c *Component) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string {
	return "database-test"
}

// Start opens the in-memory database. The pool is limited to one
// connection so every query sees the same database.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("component already started")
	}

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return fmt.Errorf("failed to open test database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)

	if c.plugin != nil {
		if err := db.Use(c.plugin); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("install encryption: %w", err)
		}
	}

	if len(c.models) > 0 {
		if err := db.WithContext(ctx).AutoMigrate(c.models...); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("auto-migrate failed: %w", err)
		}
	}

	c.db = db
	c.started = true
	return nil
}

// Stop closes the database connection.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.db == nil {
		return nil
	}

	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	c.started = false
	return sqlDB.Close()
}

// Health returns the health status of the test database.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started || c.db == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not started",
		}
	}

	sqlDB, err := c.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Reset clears all data from all tables while preserving the schema.
func (c *Component) Reset(ctx context.Context) error {
	db, err := c.handle()
	if err != nil {
		return err
	}
	return TruncateAllTables(db.WithContext(ctx))
}

// Snapshot captures every row of every table as stored, so encrypted
// columns hold ciphertext.
func (c *Component) Snapshot(ctx context.Context) (interface{}, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}
	db = db.WithContext(ctx)

	tables, err := GetTableNames(db)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string][]map[string]interface{}, len(tables))
	for _, table := range tables {
		var rows []map[string]interface{}
		if err := db.Table(table).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to snapshot table %s: %w", table, err)
		}
		snapshot[table] = rows
	}
	return snapshot, nil
}

// Restore returns the database to a snapshot taken by Snapshot. Rows are
// written back verbatim without passing through encryption.
func (c *Component) Restore(ctx context.Context, snap interface{}) error {
	snapshot, ok := snap.(map[string][]map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid snapshot type: expected map[string][]map[string]interface{}, got %T", snap)
	}

	if err := c.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset before restore: %w", err)
	}

	db := c.DB().WithContext(ctx)
	for table, rows := range snapshot {
		if err := LoadFixture(db, table, rows); err != nil {
			return err
		}
	}
	return nil
}

func (c *Component) handle() (*gorm.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started || c.db == nil {
		return nil, fmt.Errorf("component not started")
	}
	return c.db, nil
}
