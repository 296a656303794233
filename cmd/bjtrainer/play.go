package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/bjtrainer/cmd/bjtrainer/shared"
	"github.com/lox/bjtrainer/internal/client/commands"
	"github.com/lox/bjtrainer/internal/session"
	"github.com/lox/bjtrainer/internal/tui"
)

type PlayCmd struct {
	commands.GlobalFlags
}

func (c *PlayCmd) Run() error {
	cfg, err := commands.LoadConfig(&c.GlobalFlags)
	if err != nil {
		return err
	}

	logger, closeLog, err := shared.SetupFileLogger(cfg.UI.LogFile, cfg.GetLogLevel())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	tui.SetColorProfile(cfg.UI.NoColor)
	tui.ApplyTheme(cfg.UI.Theme)

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	bridge := tui.NewBridge()
	model := tui.NewModel(logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	bridge.Attach(program)

	diagnostics := make(chan session.Diagnostic, 64)
	go logDiagnostics(logger, diagnostics)

	sessionCfg := commands.SessionConfig(cfg)
	trainer := session.NewTrainer(func(onComplete func()) *session.Session {
		return session.New(sessionCfg, logger,
			session.WithObserver(bridge),
			session.WithDiagnostics(diagnostics),
			session.WithOnComplete(onComplete),
		)
	}, logger, bridge.SessionStarted)

	logger.Info("Starting trainer", "server", sessionCfg.Conn.URL, "bet", sessionCfg.InitialBet)

	trainerErr := make(chan error, 1)
	go func() {
		err := trainer.Run(ctx)
		if err != nil {
			logger.Error("Trainer stopped", "error", err)
		}
		model.SendQuitSignal()
		trainerErr <- err
	}()

	_, runErr := program.Run()
	cancel()

	err = <-trainerErr
	if err != nil {
		err = fmt.Errorf("connection to %s lost: %w", sessionCfg.Conn.URL, err)
	}
	return errors.Join(runErr, err)
}

// logDiagnostics writes session diagnostics to the log file. The channel is
// shared by every session the trainer starts, so it is never closed.
func logDiagnostics(logger *log.Logger, diagnostics <-chan session.Diagnostic) {
	for d := range diagnostics {
		logger.Warn("Session diagnostic", "kind", d.Kind, "error", d.Err)
	}
}
