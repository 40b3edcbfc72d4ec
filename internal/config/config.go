package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`                         // Listen address, e.g. ":8080"
	AllowedOrigins  []string      `yaml:"allowed_origins" json:"allowed_origins"`   // CORS origins
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"` // Grace period on SIGTERM
}

// DatabaseConfig selects the storage backend
type DatabaseConfig struct {
	Driver      string `yaml:"driver" json:"driver"` // sqlite or postgres
	URL         string `yaml:"url" json:"url"`       // File path or postgres DSN
	AutoMigrate bool   `yaml:"auto_migrate" json:"auto_migrate"`
}

// AuthConfig holds token settings
type AuthConfig struct {
	Secret   string        `yaml:"secret" json:"-"`
	TokenTTL time.Duration `yaml:"token_ttl" json:"token_ttl"`
}

// LogConfig mirrors the logger options
type LogConfig struct {
	Level   string `yaml:"level" json:"level"`     // DEBUG, INFO, WARN, ERROR
	File    string `yaml:"file" json:"file"`       // Empty disables file output
	Console bool   `yaml:"console" json:"console"` // Log to stderr
	Format  string `yaml:"format" json:"format"`   // text or json
}

// Dir returns the taskhub home directory
func Dir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return ".taskhub"
	}
	return filepath.Join(home, ".taskhub")
}

// DefaultPath returns the config file location, honouring TASKHUB_CONFIG
func DefaultPath() string {
	return getEnv("TASKHUB_CONFIG", filepath.Join(Dir(), "config.yaml"))
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			URL:         filepath.Join(Dir(), "taskhub.db"),
			AutoMigrate: true,
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:   "INFO",
			Console: true,
			Format:  "text",
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnv overrides file settings with environment variables
func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	c.Server.Addr = getEnv("TASKHUB_ADDR", c.Server.Addr)
	if origins := os.Getenv("TASKHUB_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	if v := os.Getenv("TASKHUB_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TASKHUB_AUTO_MIGRATE: %w", err)
		}
		c.Database.AutoMigrate = b
	}

	c.Auth.Secret = getEnv("TASKHUB_JWT_SECRET", c.Auth.Secret)
	if v := os.Getenv("TASKHUB_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TASKHUB_TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = ttl
	}

	c.Log.Level = getEnv("TASKHUB_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("TASKHUB_LOG_FILE", c.Log.File)
	c.Log.Format = getEnv("TASKHUB_LOG_FORMAT", c.Log.Format)
	if v := os.Getenv("TASKHUB_LOG_CONSOLE"); v != "" {
		c.Log.Console = v == "true"
	}
	return nil
}

// Load reads the config file at path, falling back to defaults when it does
// not exist, then applies environment overrides. An empty path means
// DefaultPath().
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql", "pq":
		if c.Auth.Secret == "" {
			return errors.New("auth.secret (TASKHUB_JWT_SECRET) is required with postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	return nil
}

// Save writes the config as YAML to path
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
