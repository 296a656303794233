package deck

import (
	rand "math/rand/v2"

	"github.com/lox/bjtrainer/internal/randutil"
)

// Shoe is one or more 52-card decks shuffled together
type Shoe struct {
	decks int
	cards []Card
	dealt int
	rng   *rand.Rand
}

// NewShoe creates a shuffled shoe of numDecks decks. The same seed always
// produces the same order.
func NewShoe(numDecks int, seed int64) *Shoe {
	if numDecks < 1 {
		numDecks = 1
	}
	s := &Shoe{
		decks: numDecks,
		cards: make([]Card, 0, 52*numDecks),
		rng:   randutil.New(seed),
	}
	s.Reset()
	return s
}

// Shuffle randomizes the order of the undealt cards
func (s *Shoe) Shuffle() {
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
}

// Deal removes and returns the top card. A shoe that runs dry is refilled
// and reshuffled first.
func (s *Shoe) Deal() Card {
	if len(s.cards) == 0 {
		s.Reset()
	}
	card := s.cards[0]
	s.cards = s.cards[1:]
	s.dealt++
	return card
}

// DealN deals n cards
func (s *Shoe) DealN(n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = s.Deal()
	}
	return cards
}

// Remaining returns the number of cards left in the shoe
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// DecksRemaining returns the undealt cards as a fraction of whole decks
func (s *Shoe) DecksRemaining() float64 {
	return float64(len(s.cards)) / 52
}

// Penetration returns the fraction of the shoe already dealt
func (s *Shoe) Penetration() float64 {
	return 1 - float64(len(s.cards))/float64(52*s.decks)
}

// Reset restores every deck to the shoe and shuffles it
func (s *Shoe) Reset() {
	s.cards = s.cards[:0]
	for range s.decks {
		for suit := Spades; suit <= Clubs; suit++ {
			for rank := Two; rank <= Ace; rank++ {
				s.cards = append(s.cards, NewCard(suit, rank))
			}
		}
	}
	s.dealt = 0
	s.Shuffle()
}
