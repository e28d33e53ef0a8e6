// Package config provides YAML-based configuration loading for Keystone.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Keystone configuration, loaded from keystone.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	EVM      EVMConfig      `yaml:"evm"`
	Theme    string         `yaml:"theme"`
	Scan     ScanConfig     `yaml:"scan"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig selects and addresses the system-of-record database.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// AlertsConfig tunes the alert generator.
type AlertsConfig struct {
	LookaheadDays        int     `yaml:"lookahead_days"`
	CriticalAfterDays    *int    `yaml:"critical_after_days"` // 0 disables escalation
	DefaultCapacityHours float64 `yaml:"default_capacity_hours"`
}

// EVMConfig tunes the earned value engine.
type EVMConfig struct {
	Weighting string `yaml:"weighting"` // equal or duration
}

// ScanConfig schedules the periodic milestone/alert rescan. An empty
// Schedule disables it.
type ScanConfig struct {
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone"`
}

// NotifyConfig holds optional chat destinations for new alerts.
type NotifyConfig struct {
	Slack   ChatConfig `yaml:"slack"`
	Discord ChatConfig `yaml:"discord"`
}

// ChatConfig is a bot token plus the channel alerts are posted to.
type ChatConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled reports whether both token and channel are set.
func (c ChatConfig) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

const defaultCriticalAfterDays = 7

// CriticalAfter returns the overdue escalation threshold in days.
func (a AlertsConfig) CriticalAfter() int {
	if a.CriticalAfterDays == nil {
		return defaultCriticalAfterDays
	}
	return *a.CriticalAfterDays
}

// Location resolves the scan timezone.
func (s ScanConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "keystone.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "keystone"
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Alerts.LookaheadDays == 0 {
		c.Alerts.LookaheadDays = 3
	}
	if c.Alerts.DefaultCapacityHours == 0 {
		c.Alerts.DefaultCapacityHours = 8
	}
	if c.EVM.Weighting == "" {
		c.EVM.Weighting = "equal"
	}
	if c.Theme == "" {
		c.Theme = "light"
	}
	if c.Scan.Timezone == "" {
		c.Scan.Timezone = "UTC"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be json or console", c.Log.Format))
	}
	if c.Alerts.LookaheadDays < 0 {
		errs = append(errs, "alerts.lookahead_days must not be negative")
	}
	if c.Alerts.CriticalAfter() < 0 {
		errs = append(errs, "alerts.critical_after_days must not be negative")
	}
	if c.Alerts.DefaultCapacityHours < 0 {
		errs = append(errs, "alerts.default_capacity_hours must not be negative")
	}
	switch c.EVM.Weighting {
	case "equal", "duration":
	default:
		errs = append(errs, fmt.Sprintf("evm.weighting %q must be equal or duration", c.EVM.Weighting))
	}
	switch c.Theme {
	case "light", "dark":
	default:
		errs = append(errs, fmt.Sprintf("theme %q must be light or dark", c.Theme))
	}
	if _, err := c.Scan.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("scan.timezone %q: %v", c.Scan.Timezone, err))
	}
	chats := []struct {
		name string
		cfg  ChatConfig
	}{{"slack", c.Notify.Slack}, {"discord", c.Notify.Discord}}
	for _, chat := range chats {
		if (chat.cfg.BotToken == "") != (chat.cfg.ChannelID == "") {
			errs = append(errs, fmt.Sprintf("notify.%s needs both bot_token and channel_id", chat.name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
