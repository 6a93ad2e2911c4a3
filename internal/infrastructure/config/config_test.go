package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "data", cfg.S3.Prefix)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	base := t.TempDir()
	writeConfig(t, base, "backend: sqlite\nsqlite:\n  path: rob.db\n")

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "rob.db", cfg.SQLite.Path)
	// Defaults survive for sections the file does not mention.
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	base := t.TempDir()
	writeConfig(t, base, "backend: local\n")
	t.Setenv("ROB_DATA_DIR", "/srv/rob/data")
	t.Setenv("ROB_LOG_LEVEL", "debug")

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, "/srv/rob/data", cfg.Data.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "local default valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Backend = "ftp" },
			wantErr: "unknown backend",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Backend = BackendS3 },
			wantErr: "s3 backend requires s3.bucket",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Backend = BackendSQLite },
			wantErr: "sqlite backend requires sqlite.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	base := t.TempDir()

	require.NoError(t, WriteDefault(base))
	assert.True(t, Exists(base))

	// A second init must not clobber an existing config.
	err := WriteDefault(base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, cfg.Backend)
}

func writeConfig(t *testing.T, base, content string) {
	t.Helper()
	dir := filepath.Join(base, DefaultConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0644))
}
