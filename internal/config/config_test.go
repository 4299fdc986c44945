package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VENDTUNE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "data/vendtune.db", cfg.Database.Path)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VENDTUNE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("VENDTUNE_SERVER_PORT", "9191")
	t.Setenv("VENDTUNE_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := []byte("database:\n  path: " + filepath.Join(dir, "custom.db") + "\n")
	require.NoError(t, os.WriteFile(configFile, content, 0644))

	t.Setenv("VENDTUNE_CONFIG_FILE", configFile)

	cfg, err := Load()
	require.NoError(t, err)
	// Env defaults win over the file for populated fields; the file only
	// fills what the environment left empty, so the default path stays.
	assert.NotEmpty(t, cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "invalid log level"},
		{name: "bad output", mutate: func(c *Config) { c.Logging.Output = "syslog" }, wantErr: "invalid log output"},
		{name: "empty db path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database path"},
		{name: "bad bcrypt cost", mutate: func(c *Config) { c.Session.BcryptCost = 99 }, wantErr: "bcrypt cost"},
		{name: "bad rps", mutate: func(c *Config) { c.Security.RateLimit.RPS = 0 }, wantErr: "rps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Server:   ServerConfig{Port: 8080},
				Logging:  LoggingConfig{Level: "info", Output: "console"},
				Database: DatabaseConfig{Path: "data/test.db"},
				Session:  SessionConfig{BcryptCost: 10},
				Security: SecurityConfig{RateLimit: RateLimitConfig{Enabled: true, RPS: 10, Burst: 5}},
			}
			tt.mutate(&cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Database: DatabaseConfig{Path: filepath.Join(dir, "db", "vendtune.db")},
		Logging:  LoggingConfig{FilePath: filepath.Join(dir, "logs", "vendtune.log")},
		Export:   ExportConfig{OutputDir: filepath.Join(dir, "reports")},
	}

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, filepath.Join(dir, "db"))
	assert.DirExists(t, filepath.Join(dir, "logs"))
	assert.DirExists(t, filepath.Join(dir, "reports"))
}
