package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"

	"github.com/lox/bjtrainer/cmd/bjtrainer/shared"
	"github.com/lox/bjtrainer/internal/protocol"
	"github.com/lox/bjtrainer/internal/simulation"
)

// ServerFlags selects the HTTP endpoint of a game server
type ServerFlags struct {
	Server   string        `short:"s" long:"server" default:"http://localhost:8010" env:"BJTRAINER_SERVER" help:"Server URL"`
	Timeout  time.Duration `default:"5m" help:"Request timeout"`
	LogLevel string        `short:"l" long:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level"`
}

func (f ServerFlags) client() (*simulation.Client, error) {
	logger := shared.NewLogger(os.Stderr, f.LogLevel)
	return simulation.NewClient(f.Server, &http.Client{Timeout: f.Timeout}, logger)
}

type SimulateCmd struct {
	ServerFlags

	Games   int `short:"n" default:"${default_games}" help:"Number of hands to simulate"`
	Balance int `default:"${default_balance}" help:"Starting balance"`
	Bet     int `default:"${default_bet}" help:"Base bet, scaled by the true count"`
	Decks   int `default:"${default_decks}" help:"Decks in the shoe"`
}

func (c *SimulateCmd) Run() error {
	sim, err := c.client()
	if err != nil {
		return err
	}

	req := simulation.Request{
		NumGames:  c.Games,
		Balance:   c.Balance,
		BetAmount: c.Bet,
		NumDecks:  c.Decks,
	}

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Simulating %d hands with %d decks...", c.Games, c.Decks))
	summary, err := sim.Simulate(context.Background(), req)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("Simulated %d hands", summary.NumGames))

	if err := pterm.DefaultTable.WithHasHeader().WithData(summaryTable(summary)).Render(); err != nil {
		return err
	}
	pterm.Println()
	if err := pterm.DefaultTable.WithHasHeader().WithData(statsTable(summary)).Render(); err != nil {
		return err
	}

	pterm.Println()
	pterm.Info.Printfln("Hand-by-hand results: %s", pterm.LightCyan(sim.ResultsURL()))
	return nil
}

func summaryTable(s *simulation.Summary) pterm.TableData {
	result := pterm.Green(fmt.Sprintf("%+.2f", s.TotalProfit))
	if s.TotalProfit < 0 {
		result = pterm.Red(fmt.Sprintf("%+.2f", s.TotalProfit))
	}

	return pterm.TableData{
		{"Hands", "Decks", "Bet", "Start", "Final", "Profit", "W/L/P", "Blackjacks"},
		{
			fmt.Sprint(s.NumGames),
			fmt.Sprint(s.NumDecks),
			fmt.Sprint(s.BetAmount),
			fmt.Sprint(s.Balance),
			fmt.Sprintf("%.2f", s.FinalBalance),
			result,
			fmt.Sprintf("%d/%d/%d", s.Wins, s.Losses, s.Pushes),
			fmt.Sprint(s.Blackjacks),
		},
	}
}

// statsTable shows the per-hand profit distribution and count range
func statsTable(s *simulation.Summary) pterm.TableData {
	return pterm.TableData{
		{"Mean/hand", "95% CI", "Std dev", "Median", "Win rate", "Doubles", "True count"},
		{
			fmt.Sprintf("%+.3f", s.MeanProfit),
			fmt.Sprintf("[%+.3f, %+.3f]", s.CILow, s.CIHigh),
			fmt.Sprintf("%.3f", s.StdDev),
			fmt.Sprintf("%+.2f", s.MedianProfit),
			fmt.Sprintf("%.1f%%", s.WinRate*100),
			fmt.Sprint(s.Doubles),
			fmt.Sprintf("%.1f to %.1f", s.MinTrueCount, s.MaxTrueCount),
		},
	}
}

// simulateVars exposes the server-side defaults to kong flag tags
func simulateVars() map[string]string {
	return map[string]string{
		"default_games":   fmt.Sprint(protocol.DefaultNumGames),
		"default_balance": fmt.Sprint(protocol.DefaultBalance),
		"default_bet":     fmt.Sprint(protocol.DefaultBetAmount),
		"default_decks":   fmt.Sprint(protocol.DefaultNumDecks),
	}
}
