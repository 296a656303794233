package main

import (
	"os"

	"github.com/lox/bjtrainer/cmd/bjtrainer/shared"
	"github.com/lox/bjtrainer/internal/replay"
)

type ReplayCmd struct {
	Addr     string `default:":8010" help:"Address to listen on"`
	Script   string `arg:"" optional:"" type:"existingfile" help:"HCL replay script (defaults to a single built-in hand)"`
	Seed     int64  `help:"Shoe seed for simulations (0 for a random seed)"`
	LogLevel string `short:"l" long:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
}

func (c *ReplayCmd) Run() error {
	logger := shared.NewLogger(os.Stderr, c.LogLevel)

	script := replay.DefaultScript()
	if c.Script != "" {
		loaded, err := replay.LoadScript(c.Script)
		if err != nil {
			return err
		}
		script = loaded
	}

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	server := replay.NewServer(script, logger, replay.WithSeed(c.Seed))
	logger.Debug("Loaded script", "name", script.Name, "steps", len(script.Steps))

	if err := server.ListenAndServe(ctx, c.Addr); err != nil {
		return err
	}

	for _, run := range server.Runs() {
		logger.Info("Run finished", "run", run.ID, "completed", run.Completed, "mismatches", run.Mismatches)
	}
	return nil
}
