// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultConfigDir is the directory name for rob configuration.
	DefaultConfigDir = ".rob"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"

	// BackendLocal stores the tables on the local filesystem.
	BackendLocal = "local"
	// BackendS3 stores the tables in an S3 bucket.
	BackendS3 = "s3"
	// BackendSQLite stores the tables in a SQLite database.
	BackendSQLite = "sqlite"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Backend string        `yaml:"backend,omitempty"`
	Data    DataConfig    `yaml:"data,omitempty"`
	S3      S3Config      `yaml:"s3,omitempty"`
	SQLite  SQLiteConfig  `yaml:"sqlite,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// DataConfig holds the local data directory layout.
type DataConfig struct {
	// Dir is the root of the data tree (raw/, changelog/, processed/,
	// deployment/, interim/).
	Dir string `yaml:"dir,omitempty"`
}

// S3Config holds configuration for the S3 backend.
type S3Config struct {
	Bucket string `yaml:"bucket,omitempty"`
	Region string `yaml:"region,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite backend.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Backend: BackendLocal,
		Data: DataConfig{
			Dir: "data",
		},
		S3: S3Config{
			Prefix: "data",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the .rob directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'rob init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("ROB_DATA_DIR"); dir != "" {
		c.Data.Dir = dir
	}
	if backend := os.Getenv("ROB_BACKEND"); backend != "" {
		c.Backend = backend
	}
	if bucket := os.Getenv("ROB_S3_BUCKET"); bucket != "" {
		c.S3.Bucket = bucket
	}
	if region := os.Getenv("AWS_REGION"); region != "" && c.S3.Region == "" {
		c.S3.Region = region
	}
	if level := os.Getenv("ROB_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Data.Dir == "" {
			return fmt.Errorf("local backend requires data.dir")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3 backend requires s3.bucket")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite backend requires sqlite.path")
		}
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	return nil
}

// ConfigDir returns the path to the .rob config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a rob config exists in the given path.
func Exists(basePath string) bool {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
	_, err := os.Stat(configFile)
	return err == nil
}
