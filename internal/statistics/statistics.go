package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/bjtrainer/internal/protocol"
)

// HandResult is the outcome of a single simulated blackjack hand
type HandResult struct {
	Profit    float64          // Net chips won or lost, including doubles and splits
	Outcome   protocol.Outcome // Outcome of the first player hand
	Blackjack bool             // Player was dealt a natural
	Doubled   bool             // Any player hand was doubled
	Count     int              // Running Hi-Lo count after the hand
	TrueCount float64          // Running count divided by decks remaining
}

// OutcomeStats tracks the hands ending in one outcome
type OutcomeStats struct {
	Hands  int
	Profit float64
}

// Statistics tracks simulation results in chips per hand
type Statistics struct {
	Hands      int
	SumProfit  float64
	SumProfit2 float64   // Sum of squares for variance calculation
	Values     []float64 // Store all values for median/percentile calculation

	Wins       OutcomeStats
	Losses     OutcomeStats
	Pushes     OutcomeStats
	Splits     OutcomeStats
	AllProfit  float64 // Total profit for the ledger check
	Blackjacks int
	Doubles    int

	// Count analytics
	MaxTrueCount float64
	MinTrueCount float64
}

// Mean returns the average profit per hand
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumProfit / float64(s.Hands)
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	// Rounding can push identical results just below zero
	return math.Max(0, (s.SumProfit2-float64(s.Hands)*mean*mean)/float64(s.Hands-1))
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates a new hand result into the statistics
func (s *Statistics) Add(result HandResult) {
	profit := result.Profit
	s.Hands++
	s.SumProfit += profit
	s.SumProfit2 += profit * profit
	s.Values = append(s.Values, profit)
	s.AllProfit += profit

	switch result.Outcome {
	case protocol.OutcomeWin:
		s.Wins.add(profit)
	case protocol.OutcomeLoss:
		s.Losses.add(profit)
	case protocol.OutcomePush:
		s.Pushes.add(profit)
	case protocol.OutcomeSplit:
		s.Splits.add(profit)
	}

	if result.Blackjack {
		s.Blackjacks++
	}
	if result.Doubled {
		s.Doubles++
	}

	if s.Hands == 1 || result.TrueCount > s.MaxTrueCount {
		s.MaxTrueCount = result.TrueCount
	}
	if s.Hands == 1 || result.TrueCount < s.MinTrueCount {
		s.MinTrueCount = result.TrueCount
	}
}

func (o *OutcomeStats) add(profit float64) {
	o.Hands++
	o.Profit += profit
}

// WinRate returns the fraction of hands won outright
func (s *Statistics) WinRate() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.Wins.Hands) / float64(s.Hands)
}

// Median returns the median value of all results
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// IsLedgerBalanced checks that per-outcome profit adds up to the total
func (s *Statistics) IsLedgerBalanced() bool {
	parts := s.Wins.Profit + s.Losses.Profit + s.Pushes.Profit + s.Splits.Profit
	return math.Abs(s.AllProfit-parts) <= 1e-6
}

// Validate performs consistency checks on the collected data
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: all=%.6f wins=%.6f losses=%.6f pushes=%.6f splits=%.6f",
			s.AllProfit, s.Wins.Profit, s.Losses.Profit, s.Pushes.Profit, s.Splits.Profit)
	}

	if s.Hands <= 0 {
		return fmt.Errorf("invalid hands count: %d", s.Hands)
	}

	if len(s.Values) != s.Hands {
		return fmt.Errorf("values array length (%d) does not match hands count (%d)",
			len(s.Values), s.Hands)
	}

	outcomes := s.Wins.Hands + s.Losses.Hands + s.Pushes.Hands + s.Splits.Hands
	if outcomes != s.Hands {
		return fmt.Errorf("outcome total (%d) does not match total hands (%d)", outcomes, s.Hands)
	}

	if s.Blackjacks > s.Wins.Hands+s.Pushes.Hands {
		return fmt.Errorf("blackjacks (%d) exceed wins and pushes (%d)", s.Blackjacks, s.Wins.Hands+s.Pushes.Hands)
	}

	return nil
}
