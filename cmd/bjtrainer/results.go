package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/lox/bjtrainer/internal/fileutil"
)

type ResultsCmd struct {
	ServerFlags

	Output string `short:"o" type:"path" help:"Write results to this file instead of stdout"`
}

func (c *ResultsCmd) Run() error {
	sim, err := c.client()
	if err != nil {
		return err
	}

	text, err := sim.Results(context.Background())
	if err != nil {
		return err
	}

	if c.Output == "" {
		fmt.Print(text)
		return nil
	}

	if err := fileutil.WriteFileAtomic(c.Output, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	pterm.Success.Printfln("Results written to %s", c.Output)
	return nil
}
