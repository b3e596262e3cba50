package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.mysql-analyzer/config.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Analysis AnalysisConfig `yaml:"analysis,omitempty"`
	Logging  LogConfig      `yaml:"logging,omitempty"`
}

// DatabaseConfig defines the connection to the database being analyzed.
type DatabaseConfig struct {
	Type     string `yaml:"type"` // mysql or postgresql
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Charset  string `yaml:"charset,omitempty"`
	Schema   string `yaml:"schema,omitempty"` // postgresql schema, default public
	SSL      bool   `yaml:"ssl,omitempty"`
}

// AnalysisConfig holds analyzer parameters. They are passed into each
// analyzer at construction, never read from ambient global state, so
// independent analysis runs stay isolated.
type AnalysisConfig struct {
	MaxIdentifierLength   int     `yaml:"max_identifier_length,omitempty"` // MySQL limit, 64
	MinSeverity           string  `yaml:"min_severity,omitempty"`          // low, medium, high, critical
	MinRowsForSelectivity int64   `yaml:"min_rows_for_selectivity,omitempty"`
	SelectivityThreshold  float64 `yaml:"selectivity_threshold,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.mysql-analyzer/logs/
}

// Load reads the config file, falling back to defaults when the file does not
// exist, and applies .env / environment overrides on top. Credentials can
// therefore live entirely in a .env file with no YAML config present.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	cfg := &Config{Version: CurrentVersion}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		if cfg.Version != CurrentVersion {
			return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no file; env-only configuration
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the connection settings are complete enough to use.
func (c *Config) Validate() error {
	if c.Database.User == "" || c.Database.Database == "" {
		return errors.New("database user and database name are required (set DB_USER and DB_DATABASE or the config file)")
	}
	switch c.Database.Type {
	case "mysql", "postgresql":
		return nil
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
}

// applyEnv loads the first .env file found and overlays DB_* environment
// variables onto the connection settings.
func (c *Config) applyEnv() {
	for _, p := range []string{".env", ".env.local", ".env.dev"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	setString(&c.Database.Type, "DB_TYPE")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_DATABASE")
	setString(&c.Database.Charset, "DB_CHARSET")
	setString(&c.Database.Schema, "DB_SCHEMA")
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Type == "" {
		c.Database.Type = "mysql"
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		if c.Database.Type == "postgresql" {
			c.Database.Port = 5432
		} else {
			c.Database.Port = 3306
		}
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Analysis.MaxIdentifierLength == 0 {
		c.Analysis.MaxIdentifierLength = 64
	}
	if c.Analysis.MinSeverity == "" {
		c.Analysis.MinSeverity = "low"
	}
	if c.Analysis.MinRowsForSelectivity == 0 {
		c.Analysis.MinRowsForSelectivity = 1000
	}
	if c.Analysis.SelectivityThreshold == 0 {
		c.Analysis.SelectivityThreshold = 0.1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.mysql-analyzer/logs/")
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
