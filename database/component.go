package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/fieldcrypt/component"
	"github.com/kbukum/fieldcrypt/logger"
)

// DriverFunc creates a GORM dialector from a DSN.
type DriverFunc func(dsn string) gorm.Dialector

// Component wraps DB and implements component.Component for lifecycle management.
type Component struct {
	db      *DB
	cfg     Config
	log     *logger.Logger
	driver  DriverFunc
	plugins []gorm.Plugin
	models  []interface{}
}

// NewComponent creates a database component. The sqlite driver is used
// unless WithDriver supplies another one.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{
		cfg:    cfg,
		log:    log.WithComponent("database"),
		driver: DefaultSQLiteDriver,
	}
}

// DefaultSQLiteDriver opens dsn with the pure sqlite driver.
func DefaultSQLiteDriver(dsn string) gorm.Dialector {
	return sqlite.Open(dsn)
}

// WithDriver sets the dialector factory, e.g. for postgres or mysql.
func (c *Component) WithDriver(fn DriverFunc) *Component {
	if fn != nil {
		c.driver = fn
	}
	return c
}

// WithPlugin registers a GORM plugin installed on Start before migration.
// The field encryption plugin is installed this way:
//
//	c.WithPlugin(gormcrypt.New(enc, gormcrypt.WithLogger(log)))
func (c *Component) WithPlugin(plugins ...gorm.Plugin) *Component {
	c.plugins = append(c.plugins, plugins...)
	return c
}

// WithAutoMigrate registers models for auto-migration on Start.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB returns the underlying *DB, or nil if not started.
func (c *Component) DB() *DB {
	return c.db
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects to the database, installs plugins and optionally runs
// auto-migration. A disabled component does nothing.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("Database component disabled")
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	db, err := New(ctx, c.driver(c.cfg.DSN), c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}

	for _, p := range c.plugins {
		if err := db.Use(p); err != nil {
			_ = db.Close()
			return fmt.Errorf("database start: %w", err)
		}
	}

	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}

	c.db = db
	return nil
}

// Stop gracefully closes the database connection.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health returns the current health status of the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusHealthy,
			Message: "disabled",
		}
	}
	if c.db == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not initialized",
		}
	}

	status := c.db.CheckHealth(ctx)
	if !status.Connected {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %s", status.Error),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe returns a one-line summary of the driver, pool and plugins.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s pool=%d/%d", c.cfg.Driver, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	if len(c.plugins) > 0 {
		names := make([]string, 0, len(c.plugins))
		for _, p := range c.plugins {
			names = append(names, p.Name())
		}
		details += " plugins=" + strings.Join(names, ",")
	}
	return component.Description{
		Name:    "Database",
		Type:    "database",
		Details: details,
	}
}
