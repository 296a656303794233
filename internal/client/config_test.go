package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bjtrainer.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeConfig(t, `
server {
  url                = "https://tables.example.com"
  reconnect_attempts = 0
}

session {
  auto_select = false
  default_bet = 50
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://tables.example.com", cfg.Server.URL)
	assert.Equal(t, "/ws/game", cfg.Server.Path, "defaults fill unset fields")
	assert.Equal(t, 0, *cfg.Server.ReconnectAttempts, "explicit zero is kept")
	assert.False(t, cfg.AutoSelect())
	assert.Equal(t, 50, cfg.InitialBet())
	assert.Equal(t, "console", cfg.Session.ModeToken)
	assert.Equal(t, "warn", cfg.GetLogLevel(), "missing ui block defaulted")

	conn := cfg.ConnConfig()
	assert.Equal(t, NoReconnect.MaxAttempts, conn.Backoff.MaxAttempts)
	assert.Equal(t, 10*time.Second, conn.ConnectTimeout)
}

func TestLoadConfigExplicitZeros(t *testing.T) {
	path := writeConfig(t, `
server {
  ping_interval = 0
}

session {
  default_bet = 0
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0, cfg.InitialBet(), "explicit zero bet is kept")
	assert.Equal(t, time.Duration(0), cfg.ConnConfig().PingInterval, "explicit zero disables pings")
	assert.Equal(t, 10*time.Second, cfg.ConnConfig().ConnectTimeout)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Run("syntax", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `server {`))
		assert.ErrorContains(t, err, "failed to parse HCL file")
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "server {\n  colour = \"red\"\n}\n"))
		assert.ErrorContains(t, err, "failed to decode HCL")
	})
}

func TestConfigDurations(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.AutoSelect())
	assert.Equal(t, 10, cfg.InitialBet())
	assert.Equal(t, 2*time.Second, cfg.ResultClearDelay())
	assert.Equal(t, 4*time.Second, cfg.CompleteDelay())

	conn := cfg.ConnConfig()
	assert.Equal(t, "http://localhost:8010", conn.URL)
	assert.Equal(t, "/ws/game", conn.Path)
	assert.Equal(t, 54*time.Second, conn.PingInterval)
	assert.Equal(t, Backoff{
		MaxAttempts: 3,
		Initial:     500 * time.Millisecond,
		Max:         10 * time.Second,
		Multiplier:  2,
	}, conn.Backoff)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.Server.URL = "" }, wantErr: "server URL is required"},
		{name: "zero timeout", mutate: func(c *Config) { c.Server.ConnectTimeout = 0 }, wantErr: "connect timeout"},
		{name: "negative ping", mutate: func(c *Config) {
			n := -1
			c.Server.PingInterval = &n
		}, wantErr: "ping interval"},
		{name: "negative attempts", mutate: func(c *Config) {
			n := -1
			c.Server.ReconnectAttempts = &n
		}, wantErr: "reconnect attempts"},
		{name: "max below initial", mutate: func(c *Config) { c.Server.ReconnectMaxDelayMs = 100 }, wantErr: "reconnect max delay"},
		{name: "negative bet", mutate: func(c *Config) {
			n := -5
			c.Session.DefaultBet = &n
		}, wantErr: "default bet"},
		{name: "zero delay", mutate: func(c *Config) { c.Session.CompleteMs = 0 }, wantErr: "result delays"},
		{name: "no mode token", mutate: func(c *Config) { c.Session.ModeToken = "" }, wantErr: "mode token"},
		{name: "no mode token without auto select", mutate: func(c *Config) {
			off := false
			c.Session.AutoSelect = &off
			c.Session.ModeToken = ""
		}},
		{name: "bad log level", mutate: func(c *Config) { c.UI.LogLevel = "trace" }, wantErr: "invalid log level"},
		{name: "bad theme", mutate: func(c *Config) { c.UI.Theme = "neon" }, wantErr: "invalid theme"},
		{name: "missing block", mutate: func(c *Config) { c.UI = nil }, wantErr: "incomplete configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "bjtrainer.example.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultConfig(), cfg)
}
