package config

import (
	"fmt"

	"github.com/kbukum/fieldcrypt/database"
	"github.com/kbukum/fieldcrypt/encryption"
	"github.com/kbukum/fieldcrypt/validation"
)

// Config is the configuration of a service using field encryption.
//
//	name: patients
//	encryption:
//	  algorithm: chacha20-poly1305 # secret_key comes from the environment
//	database:
//	  enabled: true
//	  dsn: file:patients.db
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Encryption encryption.Config `yaml:"encryption" mapstructure:"encryption"`
	Database   database.Config   `yaml:"database" mapstructure:"database"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Encryption.ApplyDefaults()
	c.Database.ApplyDefaults()
}

// Validate checks struct tags first, then each section's own rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Encryption.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("config.database: %w", err)
	}
	return nil
}

// Load reads, defaults and validates the configuration of serviceName.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
