package protocol

import "fmt"

// Simulation defaults, matching the web front end's form.
const (
	DefaultNumGames  = 200
	DefaultBalance   = 1000
	DefaultBetAmount = 10
	DefaultNumDecks  = 8
)

// SimulateRequest is the body of POST /simulate.
type SimulateRequest struct {
	NumGames  int `json:"num_games"`
	Balance   int `json:"balance"`
	BetAmount int `json:"bet_amount"`
	NumDecks  int `json:"num_decks"`
}

// WithDefaults fills zero fields with the front end defaults.
func (r SimulateRequest) WithDefaults() SimulateRequest {
	if r.NumGames == 0 {
		r.NumGames = DefaultNumGames
	}
	if r.Balance == 0 {
		r.Balance = DefaultBalance
	}
	if r.BetAmount == 0 {
		r.BetAmount = DefaultBetAmount
	}
	if r.NumDecks == 0 {
		r.NumDecks = DefaultNumDecks
	}
	return r
}

// Validate checks the request bounds.
func (r SimulateRequest) Validate() error {
	if r.NumGames < 1 {
		return fmt.Errorf("number of games must be at least 1")
	}
	if r.NumDecks < 1 {
		return fmt.Errorf("number of decks must be at least 1")
	}
	if r.Balance < 1 {
		return fmt.Errorf("balance must be at least 1")
	}
	if r.BetAmount < 0 {
		return fmt.Errorf("bet amount cannot be negative")
	}
	return nil
}

// SimulateSummary is the response to POST /simulate. NumGames is the number
// of hands actually played, which is lower than requested when the bankroll
// runs out.
type SimulateSummary struct {
	NumGames     int     `json:"num_games"`
	Balance      int     `json:"balance"`
	BetAmount    int     `json:"bet_amount"`
	NumDecks     int     `json:"num_decks"`
	FinalBalance float64 `json:"final_balance"`
	TotalProfit  float64 `json:"total_profit"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Pushes       int     `json:"pushes"`
	Blackjacks   int     `json:"blackjacks"`
	Doubles      int     `json:"doubles"`

	// Per-hand profit distribution
	MeanProfit   float64 `json:"mean_profit"`
	StdDev       float64 `json:"std_dev"`
	CILow        float64 `json:"ci95_low"`
	CIHigh       float64 `json:"ci95_high"`
	MedianProfit float64 `json:"median_profit"`
	WinRate      float64 `json:"win_rate"`

	MinTrueCount float64 `json:"min_true_count"`
	MaxTrueCount float64 `json:"max_true_count"`
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}
