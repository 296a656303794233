package deck

import (
	"fmt"

	"github.com/lox/bjtrainer/internal/protocol"
)

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the rank as the game server spells it
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprint(int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Points returns the blackjack value with aces counted high
func (c Card) Points() int {
	switch {
	case c.Rank == Ace:
		return 11
	case c.Rank >= Ten:
		return 10
	default:
		return int(c.Rank)
	}
}

// HiLo returns the card's Hi-Lo running count contribution
func (c Card) HiLo() int {
	switch {
	case c.Rank <= Six:
		return 1
	case c.Rank >= Ten:
		return -1
	default:
		return 0
	}
}

// Wire converts the card to its protocol form
func (c Card) Wire() protocol.Card {
	return protocol.Card{Rank: c.Rank.String(), Suit: c.Suit.String()}
}

// HandValue totals cards, demoting aces to one while the hand would bust.
// soft reports whether an ace is still counted as eleven.
func HandValue(cards []Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		total += c.Points()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// IsBlackjack reports whether cards are a two card 21
func IsBlackjack(cards []Card) bool {
	total, _ := HandValue(cards)
	return len(cards) == 2 && total == 21
}
