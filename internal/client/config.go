package client

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete client configuration
type Config struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Session *SessionSettings `hcl:"session,block"`
	UI      *UISettings      `hcl:"ui,block"`
}

// ServerSettings contains server connection settings
type ServerSettings struct {
	URL                 string  `hcl:"url,optional"`
	Path                string  `hcl:"path,optional"`
	ConnectTimeout      int     `hcl:"connect_timeout,optional"`
	PingInterval        *int    `hcl:"ping_interval,optional"`
	ReconnectAttempts   *int    `hcl:"reconnect_attempts,optional"`
	ReconnectDelayMs    int     `hcl:"reconnect_delay_ms,optional"`
	ReconnectMaxDelayMs int     `hcl:"reconnect_max_delay_ms,optional"`
	ReconnectMultiplier float64 `hcl:"reconnect_multiplier,optional"`
}

// SessionSettings contains game session behaviour
type SessionSettings struct {
	AutoSelect    *bool  `hcl:"auto_select,optional"`
	ModeToken     string `hcl:"mode_token,optional"`
	DefaultBet    *int   `hcl:"default_bet,optional"`
	ResultClearMs int    `hcl:"result_clear_ms,optional"`
	CompleteMs    int    `hcl:"complete_ms,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
	Theme    string `hcl:"theme,optional"`
	NoColor  bool   `hcl:"no_color,optional"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	attempts := 3
	pingInterval := 54
	defaultBet := 10
	autoSelect := true

	return &Config{
		Server: &ServerSettings{
			URL:                 "http://localhost:8010",
			Path:                "/ws/game",
			ConnectTimeout:      10,
			PingInterval:        &pingInterval,
			ReconnectAttempts:   &attempts,
			ReconnectDelayMs:    500,
			ReconnectMaxDelayMs: 10000,
			ReconnectMultiplier: 2,
		},
		Session: &SessionSettings{
			AutoSelect:    &autoSelect,
			ModeToken:     "console",
			DefaultBet:    &defaultBet,
			ResultClearMs: 2000,
			CompleteMs:    4000,
		},
		UI: &UISettings{
			LogLevel: "warn",
			LogFile:  "bjtrainer.log",
			Theme:    "default",
		},
	}
}

// LoadConfig loads client configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills missing blocks and zero values from DefaultConfig
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server == nil {
		c.Server = defaults.Server
	}
	if c.Session == nil {
		c.Session = defaults.Session
	}
	if c.UI == nil {
		c.UI = defaults.UI
	}

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.Path == "" {
		c.Server.Path = defaults.Server.Path
	}
	if c.Server.ConnectTimeout == 0 {
		c.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if c.Server.PingInterval == nil {
		c.Server.PingInterval = defaults.Server.PingInterval
	}
	if c.Server.ReconnectAttempts == nil {
		c.Server.ReconnectAttempts = defaults.Server.ReconnectAttempts
	}
	if c.Server.ReconnectDelayMs == 0 {
		c.Server.ReconnectDelayMs = defaults.Server.ReconnectDelayMs
	}
	if c.Server.ReconnectMaxDelayMs == 0 {
		c.Server.ReconnectMaxDelayMs = defaults.Server.ReconnectMaxDelayMs
	}
	if c.Server.ReconnectMultiplier == 0 {
		c.Server.ReconnectMultiplier = defaults.Server.ReconnectMultiplier
	}

	if c.Session.AutoSelect == nil {
		c.Session.AutoSelect = defaults.Session.AutoSelect
	}
	if c.Session.ModeToken == "" {
		c.Session.ModeToken = defaults.Session.ModeToken
	}
	if c.Session.DefaultBet == nil {
		c.Session.DefaultBet = defaults.Session.DefaultBet
	}
	if c.Session.ResultClearMs == 0 {
		c.Session.ResultClearMs = defaults.Session.ResultClearMs
	}
	if c.Session.CompleteMs == 0 {
		c.Session.CompleteMs = defaults.Session.CompleteMs
	}

	if c.UI.LogLevel == "" {
		c.UI.LogLevel = defaults.UI.LogLevel
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = defaults.UI.LogFile
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if c.Server == nil || c.Session == nil || c.UI == nil {
		return fmt.Errorf("incomplete configuration")
	}

	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}

	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.Server.PingInterval != nil && *c.Server.PingInterval < 0 {
		return fmt.Errorf("ping interval cannot be negative")
	}

	if c.Server.ReconnectAttempts != nil && *c.Server.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect attempts cannot be negative")
	}

	if c.Server.ReconnectDelayMs <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	if c.Server.ReconnectMaxDelayMs < c.Server.ReconnectDelayMs {
		return fmt.Errorf("reconnect max delay must be at least the reconnect delay")
	}

	if c.Session.DefaultBet != nil && *c.Session.DefaultBet < 0 {
		return fmt.Errorf("default bet cannot be negative")
	}

	if c.Session.ResultClearMs <= 0 || c.Session.CompleteMs <= 0 {
		return fmt.Errorf("result delays must be positive")
	}

	if c.Session.ModeToken == "" && c.AutoSelect() {
		return fmt.Errorf("mode token is required when auto_select is enabled")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	// Validate theme
	validThemes := map[string]bool{
		"default": true,
		"dark":    true,
		"light":   true,
	}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("invalid theme: %s", c.UI.Theme)
	}

	return nil
}

// ConnConfig converts the server block into transport settings
func (c *Config) ConnConfig() ConnConfig {
	return ConnConfig{
		URL:            c.Server.URL,
		Path:           c.Server.Path,
		ConnectTimeout: time.Duration(c.Server.ConnectTimeout) * time.Second,
		PingInterval:   time.Duration(intValue(c.Server.PingInterval)) * time.Second,
		Backoff: Backoff{
			MaxAttempts: intValue(c.Server.ReconnectAttempts),
			Initial:     time.Duration(c.Server.ReconnectDelayMs) * time.Millisecond,
			Max:         time.Duration(c.Server.ReconnectMaxDelayMs) * time.Millisecond,
			Multiplier:  c.Server.ReconnectMultiplier,
		},
	}
}

// InitialBet returns the bet a new session starts with
func (c *Config) InitialBet() int {
	return intValue(c.Session.DefaultBet)
}

// intValue dereferences an optional setting, treating unset as zero
func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// AutoSelect returns whether the mode token is sent when a connection opens
func (c *Config) AutoSelect() bool {
	return c.Session.AutoSelect != nil && *c.Session.AutoSelect
}

// ResultClearDelay returns how long a result stays on screen
func (c *Config) ResultClearDelay() time.Duration {
	return time.Duration(c.Session.ResultClearMs) * time.Millisecond
}

// CompleteDelay returns how long after a result the session completes
func (c *Config) CompleteDelay() time.Duration {
	return time.Duration(c.Session.CompleteMs) * time.Millisecond
}

// GetLogLevel returns the log level
func (c *Config) GetLogLevel() string {
	return c.UI.LogLevel
}
