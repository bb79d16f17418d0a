package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8000", cfg.API.URL)
	assert.Equal(t, "ws://localhost:8000", cfg.WS.URL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, DefaultChannels, cfg.Live.Channels)
	assert.Equal(t, 0, cfg.Live.Reconnect.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Live.Reconnect.InitialInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestEndpoints(t *testing.T) {
	cfg := Default()
	cfg.API.URL = "https://api.example.com/"
	cfg.WS.URL = "wss://push.example.com/"

	assert.Equal(t, "https://api.example.com", cfg.APIBase())
	assert.Equal(t, "wss://push.example.com/ws", cfg.WSEndpoint())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("FLOWDASH_API_URL", "http://backend:9000")
	t.Setenv("WS_URL", "ws://backend:9000")
	t.Setenv("FLOWDASH_LIVE_RECONNECT_MAX_ATTEMPTS", "3")
	t.Setenv("FLOWDASH_LOGGING_FORMAT", "json")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.File())

	assert.Equal(t, "http://backend:9000", cfg.API.URL)
	assert.Equal(t, "ws://backend:9000", cfg.WS.URL)
	assert.Equal(t, 3, cfg.Live.Reconnect.MaxAttempts)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowdash.yaml")
	content := `
api:
  url: http://files:8080
  timeout: 2s
live:
  channels: [workflows]
  reconnect:
    max_attempts: 5
    max_interval: 10s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File())
	assert.Equal(t, "http://files:8080", cfg.API.URL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, []string{"workflows"}, cfg.Live.Channels)
	assert.Equal(t, 5, cfg.Live.Reconnect.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Live.Reconnect.MaxInterval)
	assert.Equal(t, "ws://localhost:8000", cfg.WS.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative api url", func(c *Config) { c.API.URL = "/api" }},
		{"http ws url", func(c *Config) { c.WS.URL = "http://localhost:8000" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"negative attempts", func(c *Config) { c.Live.Reconnect.MaxAttempts = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSetupLogging(t *testing.T) {
	prev := logrus.GetLevel()
	defer logrus.SetLevel(prev)

	cfg := Default()
	cfg.Logging.Level = "warn"
	require.NoError(t, SetupLogging(cfg))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	cfg.Logging.Level = "nope"
	assert.Error(t, SetupLogging(cfg))
}
