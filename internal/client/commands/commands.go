// Package commands holds the flag and configuration plumbing shared by the
// bjtrainer subcommands.
package commands

import (
	"fmt"
	"strings"

	"github.com/lox/bjtrainer/internal/client"
	"github.com/lox/bjtrainer/internal/session"
)

// GlobalFlags holds common configuration for commands that talk to a server
type GlobalFlags struct {
	Config   string `short:"c" long:"config" default:"bjtrainer.hcl" env:"BJTRAINER_CONFIG" help:"Path to HCL configuration file"`
	Server   string `short:"s" long:"server" env:"BJTRAINER_SERVER" help:"Server URL to connect to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" env:"BJTRAINER_LOG_LEVEL" help:"Log level (overrides config)"`
	LogFile  string `long:"log-file" help:"Log file path (overrides config)"`
	NoColor  bool   `long:"no-color" env:"NO_COLOR" help:"Disable colour output"`
}

// LoadConfig loads the configuration file, applies command line overrides
// and validates the result.
func LoadConfig(flags *GlobalFlags) (*client.Config, error) {
	cfg, err := client.LoadConfig(flags.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	// Apply command line overrides
	if flags.Server != "" {
		cfg.Server.URL = strings.TrimSpace(flags.Server)
	}
	if flags.LogLevel != "" {
		cfg.UI.LogLevel = flags.LogLevel
	}
	if flags.LogFile != "" {
		cfg.UI.LogFile = flags.LogFile
	}
	if flags.NoColor {
		cfg.UI.NoColor = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SessionConfig converts the loaded configuration into session settings
func SessionConfig(cfg *client.Config) session.Config {
	return session.Config{
		Conn:             cfg.ConnConfig(),
		AutoSelect:       cfg.AutoSelect(),
		ModeToken:        cfg.Session.ModeToken,
		InitialBet:       cfg.InitialBet(),
		ResultClearDelay: cfg.ResultClearDelay(),
		CompleteDelay:    cfg.CompleteDelay(),
	}
}
