package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger"`
	Server ServerConfig `mapstructure:"server"`
	Portal PortalConfig `mapstructure:"portal"`
	Scrape ScrapeConfig `mapstructure:"scrape"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	Format      string `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// Transports the MCP server can speak.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServerConfig holds settings for the MCP server surface.
type ServerConfig struct {
	Name      string `mapstructure:"name"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Transport string `mapstructure:"transport"` // "stdio" or "sse"
}

// PortalConfig holds the portal endpoint and the student credentials used to
// authenticate against it.
type PortalConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	RollNumber string        `mapstructure:"roll_number"`
	Password   string        `mapstructure:"password"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ScrapeConfig holds tunables for the scraping layer.
type ScrapeConfig struct {
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	MinAttendance float64       `mapstructure:"min_attendance"`
}

// SetDefaults registers default values so the app can run with a minimal
// config file containing only the credentials.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "techmcp")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("server.name", "TechMCP")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.transport", "sse")

	v.SetDefault("portal.base_url", "https://ecampus.psgtech.ac.in/studzone")
	v.SetDefault("portal.timeout", 30*time.Second)

	v.SetDefault("scrape.cache_ttl", 30*time.Minute)
	v.SetDefault("scrape.min_attendance", 75.0)
}

// Validate checks the configuration for values the server cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Portal.RollNumber) == "" {
		return fmt.Errorf("portal.roll_number is required")
	}
	if c.Portal.Password == "" {
		return fmt.Errorf("portal.password is required")
	}
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	switch c.Server.Transport {
	case TransportStdio, TransportSSE:
	default:
		return fmt.Errorf("server.transport must be %q or %q, got %q", TransportStdio, TransportSSE, c.Server.Transport)
	}
	if c.Server.Transport == TransportSSE && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if c.Scrape.MinAttendance <= 0 || c.Scrape.MinAttendance > 100 {
		return fmt.Errorf("scrape.min_attendance must be in (0, 100], got %v", c.Scrape.MinAttendance)
	}
	return nil
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	var loadErr error
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			loadErr = err
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Set stores a configuration directly, bypassing Viper. Used by tests.
func Set(cfg *Config) {
	instance = cfg
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
