package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/bjtrainer/internal/session"
)

// StateMsg carries a new session snapshot into the model.
type StateMsg struct {
	Snapshot session.Snapshot
}

// TextMsg carries an out-of-band server line into the transcript.
type TextMsg struct {
	Text string
}

// SessionMsg announces a fresh session for the next hand.
type SessionMsg struct {
	Hand       int
	Controller Controller
}

// Sender is satisfied by *tea.Program
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards session callbacks into a running program. It implements
// session.Observer; events arriving before Attach are dropped.
type Bridge struct {
	sender atomic.Pointer[Sender]
}

// NewBridge creates an unattached bridge
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach starts forwarding to s
func (b *Bridge) Attach(s Sender) {
	b.sender.Store(&s)
}

func (b *Bridge) send(msg tea.Msg) {
	if s := b.sender.Load(); s != nil {
		(*s).Send(msg)
	}
}

// StateChanged implements session.Observer
func (b *Bridge) StateChanged(snap session.Snapshot) {
	b.send(StateMsg{Snapshot: snap})
}

// TextReceived implements session.Observer
func (b *Bridge) TextReceived(text string) {
	b.send(TextMsg{Text: text})
}

// SessionStarted matches the trainer's onSession callback
func (b *Bridge) SessionStarted(hand int, s *session.Session) {
	b.send(SessionMsg{Hand: hand, Controller: s})
}
