// Package config provides configuration management for sewernet.
//
// Config file locations (priority order):
//  1. $SEWERNET_CONFIG
//  2. ./sewernet.yaml
//  3. ~/.config/sewernet/config.yaml
//  4. /etc/sewernet/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sewernet/internal/domain"
	"sewernet/internal/logging"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = "./sewernet.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(500 * time.Millisecond)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	c.Profiles.Pump = withProfileDefaults(c.Profiles.Pump, domain.StandardProfile(domain.DefaultPumpProfileName))
	c.Profiles.Weir = withProfileDefaults(c.Profiles.Weir, domain.StandardProfile(domain.DefaultWeirProfileName))
}

func withProfileDefaults(p ProfileConfig, std *domain.CrossSectionDefinition) ProfileConfig {
	if p.Shape == "" {
		p.Shape = string(std.Shape)
	}
	if p.Width <= 0 {
		p.Width = std.Width
	}
	if p.Height <= 0 {
		p.Height = std.Height
	}
	return p
}

// LoggerConfig converts the logging section for logging.New
func (c *Config) LoggerConfig(service string) logging.Config {
	return logging.Config{
		Level:   logging.ParseLevel(c.Logging.Level),
		JSON:    c.Logging.JSON,
		Service: service,
	}
}

// DefaultProfiles returns the generated pump and weir definitions
func (c *Config) DefaultProfiles() []*domain.CrossSectionDefinition {
	return []*domain.CrossSectionDefinition{
		profileDefinition(domain.DefaultPumpProfileName, c.Profiles.Pump),
		profileDefinition(domain.DefaultWeirProfileName, c.Profiles.Weir),
	}
}

func profileDefinition(name string, p ProfileConfig) *domain.CrossSectionDefinition {
	return &domain.CrossSectionDefinition{
		Name:   name,
		Shape:  domain.ProfileShape(p.Shape),
		Width:  p.Width,
		Height: p.Height,
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Database: %s, Log level: %s\n", c.Database.Path, c.Logging.Level)
	summary += fmt.Sprintf("Pump profile: %s %.2fx%.2f, Weir profile: %s %.2fx%.2f\n",
		c.Profiles.Pump.Shape, c.Profiles.Pump.Width, c.Profiles.Pump.Height,
		c.Profiles.Weir.Shape, c.Profiles.Weir.Width, c.Profiles.Weir.Height)
	summary += fmt.Sprintf("Watch debounce: %s, Server: %s", c.Watch.Debounce.Duration(), c.Server.Addr)
	return summary
}
