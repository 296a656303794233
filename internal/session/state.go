package session

import (
	"slices"
	"sync"

	"github.com/lox/bjtrainer/internal/protocol"
)

// ModeKind is the kind of input the session currently expects from the player.
type ModeKind int

const (
	// ModeNone means the client is waiting on the server.
	ModeNone ModeKind = iota
	// ModePrompt means a free-text answer is expected.
	ModePrompt
	// ModeActions means one of the offered action codes is expected.
	ModeActions
	// ModeBet means a hand may be started with the committed bet.
	ModeBet
)

func (k ModeKind) String() string {
	switch k {
	case ModeNone:
		return "none"
	case ModePrompt:
		return "prompt"
	case ModeActions:
		return "actions"
	case ModeBet:
		return "bet"
	default:
		return "unknown"
	}
}

// Mode is the interaction mode. Prompt is only set for ModePrompt and Actions
// only for ModeActions, so a pending prompt and offered actions never coexist.
type Mode struct {
	Kind    ModeKind
	Prompt  string
	Actions []protocol.Action
}

// Offers reports whether code is among the offered actions.
func (m Mode) Offers(code string) bool {
	for _, a := range m.Actions {
		if a.Code == code {
			return true
		}
	}
	return false
}

// Hand is one side's current cards.
type Hand struct {
	Cards    []protocol.Card
	Value    int
	FaceDown bool
}

// Empty reports whether the hand has no cards.
func (h Hand) Empty() bool {
	return len(h.Cards) == 0
}

func (h Hand) clone() Hand {
	h.Cards = slices.Clone(h.Cards)
	return h
}

// Result is the outcome of the last hand.
type Result struct {
	Outcome protocol.Outcome
	Profit  float64
}

// Snapshot is an immutable copy of the store.
type Snapshot struct {
	Connected bool
	Player    Hand
	Dealer    Hand
	Mode      Mode
	Result    *Result
	Balance   int
	Bet       int

	// Bet editor
	Editing   bool
	BetBuffer string

	// Prompt answer buffer
	Answer string
}

// CanPlay reports whether a new hand may be started: the connection is open
// and no actions are pending.
func (s Snapshot) CanPlay() bool {
	return s.Connected && s.Mode.Kind != ModeActions
}

// Store holds the session state. It is written by the dispatcher, the result
// timers and the player's intents, so every access goes through mu.
type Store struct {
	mu sync.RWMutex

	connected bool
	player    Hand
	dealer    Hand
	mode      Mode
	result    *Result
	balance   int
	bet       int
	editor    BetEditor
	answer    string
}

// NewStore creates a store with the given committed bet. A fresh session
// waits for a bet.
func NewStore(bet int) *Store {
	return &Store{
		bet:  bet,
		mode: Mode{Kind: ModeBet},
	}
}

// Snapshot returns a copy of the current state
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := Snapshot{
		Connected: st.connected,
		Player:    st.player.clone(),
		Dealer:    st.dealer.clone(),
		Mode: Mode{
			Kind:    st.mode.Kind,
			Prompt:  st.mode.Prompt,
			Actions: slices.Clone(st.mode.Actions),
		},
		Balance:   st.balance,
		Bet:       st.bet,
		Editing:   st.editor.Editing(),
		BetBuffer: st.editor.Buffer(),
		Answer:    st.answer,
	}
	if st.result != nil {
		r := *st.result
		snap.Result = &r
	}
	return snap
}

// update runs fn under the write lock
func (st *Store) update(fn func(st *Store)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(st)
}

func (st *Store) setConnected(connected bool) {
	st.update(func(st *Store) { st.connected = connected })
}

func (st *Store) isConnected() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.connected
}

func (st *Store) setPrompt(text string) {
	st.mode = Mode{Kind: ModePrompt, Prompt: text}
	st.answer = ""
}

func (st *Store) setActions(actions []protocol.Action) {
	if len(actions) == 0 {
		st.mode = Mode{Kind: ModeBet}
		return
	}
	st.mode = Mode{Kind: ModeActions, Actions: slices.Clone(actions)}
}

func (st *Store) setHand(owner protocol.Owner, cards []protocol.Card, value int) {
	h := Hand{Cards: slices.Clone(cards), Value: value}
	switch owner {
	case protocol.OwnerPlayer:
		st.player = h
	case protocol.OwnerDealer:
		st.dealer = h
	}
}

func (st *Store) setCardShown(card *protocol.Card, faceDown bool) {
	if card == nil {
		st.dealer = Hand{}
		return
	}
	st.dealer = Hand{
		Cards:    []protocol.Card{*card},
		Value:    card.Points(),
		FaceDown: faceDown,
	}
}

func (st *Store) setResult(outcome protocol.Outcome, profit float64) {
	st.result = &Result{Outcome: outcome, Profit: profit}
	st.mode = Mode{Kind: ModeBet}
}
