package protocol

// EventType is the discriminant carried in the `type` field of every inbound frame.
type EventType string

const (
	// Server -> Client
	TypeText      EventType = "text"
	TypePrompt    EventType = "prompt"
	TypeActions   EventType = "actions"
	TypeHand      EventType = "hand"
	TypeCardShown EventType = "card_shown"
	TypeState     EventType = "state"
	TypeResult    EventType = "result"
)

// Owner identifies which side a hand event belongs to.
type Owner string

const (
	OwnerPlayer Owner = "player"
	OwnerDealer Owner = "dealer"
)

// Outcome of a finished hand.
type Outcome string

const (
	OutcomeWin   Outcome = "win"
	OutcomeLoss  Outcome = "loss"
	OutcomePush  Outcome = "push"
	OutcomeSplit Outcome = "split"
)

// Known reports whether the outcome is one the client knows how to render.
func (o Outcome) Known() bool {
	switch o {
	case OutcomeWin, OutcomeLoss, OutcomePush, OutcomeSplit:
		return true
	}
	return false
}

// Card as sent by the server, e.g. {"rank":"A","suit":"♠"}.
// Value is optional and only present when the server pre-computes it.
type Card struct {
	Rank  string `json:"rank"`
	Suit  string `json:"suit"`
	Value int    `json:"value,omitempty"`
}

// Points returns the card's display value. The server value wins when present,
// otherwise it is derived from the rank. Aces count 11.
func (c Card) Points() int {
	if c.Value != 0 {
		return c.Value
	}
	switch c.Rank {
	case "A":
		return 11
	case "K", "Q", "J", "T", "10":
		return 10
	case "2", "3", "4", "5", "6", "7", "8", "9":
		return int(c.Rank[0] - '0')
	}
	return 0
}

// IsRed returns true for hearts and diamonds in any of the glyph variants the
// server uses.
func (c Card) IsRed() bool {
	switch c.Suit {
	case "♥", "♡", "♦", "♢", "Hearts", "Diamonds", "h", "d":
		return true
	}
	return false
}

func (c Card) String() string {
	return c.Rank + c.Suit
}

// Action offered by the server while the player is to act.
type Action struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Server -> Client events

// Text is an out-of-band diagnostic line.
type Text struct {
	Type EventType `json:"type"`
	Text string    `json:"text"`
}

// Prompt asks the player for a free-text answer.
type Prompt struct {
	Type EventType `json:"type"`
	Text string    `json:"text"`
}

// Actions replaces the set of offered actions. An empty list clears it.
type Actions struct {
	Type    EventType `json:"type"`
	Actions []Action  `json:"actions"`
}

// Hand replaces one side's hand wholesale.
type Hand struct {
	Type  EventType `json:"type"`
	Owner Owner     `json:"owner"`
	Cards []Card    `json:"cards"`
	Value int       `json:"value"`
}

// CardShown sets the dealer's visible card. A nil Card resets the dealer hand.
type CardShown struct {
	Type     EventType `json:"type"`
	Card     *Card     `json:"card,omitempty"`
	FaceDown bool      `json:"faceDown"`
}

// State carries balance and bet updates; absent fields are left untouched.
type State struct {
	Type    EventType `json:"type"`
	Balance *int      `json:"balance,omitempty"`
	Bet     *int      `json:"bet,omitempty"`
}

// Result reports the outcome of the hand just played.
type Result struct {
	Type    EventType `json:"type"`
	Outcome Outcome   `json:"outcome"`
	Profit  float64   `json:"profit"`
}
