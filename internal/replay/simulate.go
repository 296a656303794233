package replay

import (
	"fmt"
	"math"

	"github.com/lox/bjtrainer/internal/deck"
	"github.com/lox/bjtrainer/internal/protocol"
	"github.com/lox/bjtrainer/internal/statistics"
)

// reshufflePenetration is the share of the shoe dealt before it is rebuilt.
const reshufflePenetration = 0.75

// simulation auto-plays hands with a fixed strategy and a Hi-Lo count
// driven bet spread.
type simulation struct {
	req     protocol.SimulateRequest
	shoe    *deck.Shoe
	count   int
	balance float64
	stats   statistics.Statistics
	lines   []string
	logs    []string
}

func newSimulation(req protocol.SimulateRequest, seed int64) *simulation {
	return &simulation{
		req:     req,
		shoe:    deck.NewShoe(req.NumDecks, seed),
		balance: float64(req.Balance),
	}
}

// betMultiple spreads the base bet by true count.
func betMultiple(trueCount float64) int {
	switch {
	case trueCount >= 10:
		return 10
	case trueCount >= 5:
		return 4
	case trueCount >= 2:
		return 2
	case trueCount >= -5:
		return 1
	default:
		return 0
	}
}

func (s *simulation) trueCount() float64 {
	decks := s.shoe.DecksRemaining()
	if decks == 0 {
		return 0
	}
	return float64(s.count) / decks
}

func (s *simulation) reshuffle() {
	s.shoe.Reset()
	s.count = 0
}

// run plays up to NumGames hands and returns the summary.
func (s *simulation) run() protocol.SimulateSummary {
	for i := range s.req.NumGames {
		if s.balance <= 0 {
			s.logs = append(s.logs, "Out of money! Balance is 0.")
			break
		}

		bet := math.Min(float64(s.req.BetAmount*betMultiple(s.trueCount())), s.balance)
		if bet == 0 && s.req.BetAmount > 0 {
			s.logs = append(s.logs, "Time to leave the table, count is too low.")
			s.reshuffle()
			continue
		}

		result := s.playHand(bet)
		s.balance += result.Profit
		result.Count = s.count
		result.TrueCount = s.trueCount()
		s.stats.Add(result)

		s.lines = append(s.lines, fmt.Sprintf("hand%d: balance: %g card count: %d \"True\" card count: %g",
			i, s.balance, result.Count, result.TrueCount))

		if s.shoe.Penetration() > reshufflePenetration {
			s.logs = append(s.logs, fmt.Sprintf("Reshuffling deck. Count was %d", s.count))
			s.reshuffle()
		}
	}

	low, high := s.stats.ConfidenceInterval95()
	return protocol.SimulateSummary{
		NumGames:     s.stats.Hands,
		Balance:      s.req.Balance,
		BetAmount:    s.req.BetAmount,
		NumDecks:     s.req.NumDecks,
		FinalBalance: s.balance,
		TotalProfit:  s.stats.SumProfit,
		Wins:         s.stats.Wins.Hands,
		Losses:       s.stats.Losses.Hands,
		Pushes:       s.stats.Pushes.Hands,
		Blackjacks:   s.stats.Blackjacks,
		Doubles:      s.stats.Doubles,
		MeanProfit:   s.stats.Mean(),
		StdDev:       s.stats.StdDev(),
		CILow:        low,
		CIHigh:       high,
		MedianProfit: s.stats.Median(),
		WinRate:      s.stats.WinRate(),
		MinTrueCount: s.stats.MinTrueCount,
		MaxTrueCount: s.stats.MaxTrueCount,
	}
}

func (s *simulation) deal() deck.Card {
	c := s.shoe.Deal()
	s.count += c.HiLo()
	return c
}

// playHand plays one round: the player doubles hard 10 and 11 against a weak
// dealer card when the bankroll covers it and otherwise hits below 17; the
// dealer draws to 17.
func (s *simulation) playHand(bet float64) statistics.HandResult {
	player := []deck.Card{s.deal()}
	dealer := []deck.Card{s.deal()}
	player = append(player, s.deal())
	dealer = append(dealer, s.deal())

	playerBJ, dealerBJ := deck.IsBlackjack(player), deck.IsBlackjack(dealer)
	switch {
	case playerBJ && dealerBJ:
		return statistics.HandResult{Outcome: protocol.OutcomePush, Blackjack: true}
	case playerBJ:
		return statistics.HandResult{Outcome: protocol.OutcomeWin, Profit: bet * 1.5, Blackjack: true}
	case dealerBJ:
		return statistics.HandResult{Outcome: protocol.OutcomeLoss, Profit: -bet}
	}

	doubled := false
	total, soft := deck.HandValue(player)
	up := dealer[0].Points()
	if !soft && (total == 10 || total == 11) && up < 10 && s.balance >= 2*bet {
		bet *= 2
		doubled = true
		player = append(player, s.deal())
	} else {
		for total < 17 {
			player = append(player, s.deal())
			total, _ = deck.HandValue(player)
		}
	}

	total, _ = deck.HandValue(player)
	if total > 21 {
		return statistics.HandResult{Outcome: protocol.OutcomeLoss, Profit: -bet, Doubled: doubled}
	}

	dealerTotal, _ := deck.HandValue(dealer)
	for dealerTotal < 17 {
		dealer = append(dealer, s.deal())
		dealerTotal, _ = deck.HandValue(dealer)
	}

	switch {
	case dealerTotal > 21 || total > dealerTotal:
		return statistics.HandResult{Outcome: protocol.OutcomeWin, Profit: bet, Doubled: doubled}
	case total < dealerTotal:
		return statistics.HandResult{Outcome: protocol.OutcomeLoss, Profit: -bet, Doubled: doubled}
	default:
		return statistics.HandResult{Outcome: protocol.OutcomePush, Doubled: doubled}
	}
}
