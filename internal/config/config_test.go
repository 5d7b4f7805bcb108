package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "SERVER_HOST", "SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT", "SERVER_METRICS_ENABLED", "SERVER_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_INCLUDE_CALLER", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_AGE_DAYS",
		"LOG_MAX_BACKUPS", "GRAPH_URI", "GRAPH_DATABASE", "GRAPH_USERNAME", "GRAPH_PASSWORD",
		"GRAPH_MAX_CONNECTIONS", "STORE_BACKEND", "BADGER_PATH", "BADGER_IN_MEMORY", "STORE_MAX_RETRIES",
		"GRAPH_STRICT_INTEGRITY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Nil(t, cfg.HTTP.AllowedOrigins())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_WRITE_TIMEOUT", "3s")
	t.Setenv("SERVER_METRICS_ENABLED", "true")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("STORE_BACKEND", "NEO4J")
	t.Setenv("GRAPH_URI", "bolt://localhost:7687")
	t.Setenv("GRAPH_STRICT_INTEGRITY", "1")
	t.Setenv("LOG_FILE", "/tmp/hubnet.log")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.WriteTimeout)
	assert.True(t, cfg.HTTP.MetricsEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins())
	assert.Equal(t, BackendNeo4j, cfg.Store.Backend)
	assert.True(t, cfg.Store.StrictIntegrity)
	assert.Equal(t, "/tmp/hubnet.log", cfg.Logging.File)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":          {"SERVER_PORT": "http"},
		"port out of range": {"SERVER_PORT": "70000"},
		"bad duration":      {"SERVER_READ_TIMEOUT": "soon"},
		"unknown backend":   {"STORE_BACKEND": "sqlite"},
		"neo4j without uri": {"STORE_BACKEND": "neo4j"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := writeTOML(t, `
[server]
port = 7070
read_timeout = "2s"
metrics_enabled = true
allowed_origins = ["http://localhost:3000"]

[store]
backend = "badger"
badger_in_memory = true
max_retries = 9

[log]
level = "debug"
logfile = "/var/log/hubnet.log"
max_log_size = 10
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7171")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7171, cfg.HTTP.Port, "env wins over the file")
	assert.Equal(t, 2*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, defaultWriteTimeout, cfg.HTTP.WriteTimeout)
	assert.True(t, cfg.HTTP.MetricsEnabled)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins())
	assert.True(t, cfg.Store.BadgerInMemory)
	assert.Equal(t, 9, cfg.Store.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/log/hubnet.log", cfg.Logging.File)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
}

func TestLoad_TOMLFileErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "[server]\nprot = 1\n",
		"bad duration": "[server]\nread_timeout = \"eventually\"\n",
		"bad syntax":   "[server\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CONFIG_FILE", writeTOML(t, body))
			_, err := Load()
			assert.Error(t, err)
		})
	}

	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load()
	assert.Error(t, err)
}

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hubnet.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
