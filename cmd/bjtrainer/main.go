package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"withargs" help:"Play hands against a blackjack server in the terminal"`
	Replay   ReplayCmd        `cmd:"" help:"Run a scripted replay server for offline play and testing"`
	Simulate SimulateCmd      `cmd:"" help:"Run a card-counting simulation on the server"`
	Results  ResultsCmd       `cmd:"" help:"Fetch the results of the last simulation"`
}

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bjtrainer"),
		kong.Description("Terminal blackjack trainer for a remote game server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.Vars(simulateVars()),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
