package session

import (
	"errors"
	"fmt"

	"github.com/lox/bjtrainer/internal/client"
	"github.com/lox/bjtrainer/internal/protocol"
)

// ErrPlayUnavailable is returned by Play while actions are pending.
var ErrPlayUnavailable = errors.New("play unavailable while actions are pending")

// send writes a token if the session is connected. Failures are reported and
// returned; nothing is retried.
func (s *Session) send(token string) error {
	if !s.store.isConnected() {
		s.logger.Debug("Dropping token, not connected", "token", token)
		s.report(DiagSend, client.ErrNotConnected)
		return client.ErrNotConnected
	}

	if err := s.transport.Send(token); err != nil {
		s.logger.Warn("Failed to send", "token", token, "error", err)
		s.report(DiagSend, err)
		return err
	}

	s.logger.Debug("Sent", "token", token)
	return nil
}

// Play starts a hand by sending the committed bet. It is unavailable while
// disconnected or while actions are pending.
func (s *Session) Play() error {
	snap := s.store.Snapshot()
	if !snap.Connected {
		s.report(DiagSend, client.ErrNotConnected)
		return client.ErrNotConnected
	}
	if snap.Mode.Kind == ModeActions {
		s.report(DiagValidation, ErrPlayUnavailable)
		return ErrPlayUnavailable
	}

	if err := s.send(protocol.BetToken(snap.Bet)); err != nil {
		return err
	}

	s.store.update(func(st *Store) { st.mode = Mode{Kind: ModeNone} })
	s.notify()
	return nil
}

// Act dispatches an action code. The offered actions are cleared whether or
// not the token reaches the server.
func (s *Session) Act(code string) error {
	s.store.update(func(st *Store) {
		if st.mode.Kind == ModeActions {
			st.mode = Mode{Kind: ModeNone}
		}
	})
	s.notify()

	return s.send(code)
}

// SetAnswer replaces the prompt answer buffer.
func (s *Session) SetAnswer(text string) {
	s.store.update(func(st *Store) { st.answer = text })
}

// Answer sends the answer buffer in response to the active prompt. The
// prompt is cleared locally regardless of delivery.
func (s *Session) Answer() error {
	var text string
	s.store.update(func(st *Store) {
		text = st.answer
		st.answer = ""
		if st.mode.Kind == ModePrompt {
			st.mode = Mode{Kind: ModeNone}
		}
	})
	s.notify()

	return s.send(text)
}

// AnswerText sets the buffer to text and answers the prompt with it.
func (s *Session) AnswerText(text string) error {
	s.SetAnswer(text)
	return s.Answer()
}

// EditBet opens the bet editor seeded with the committed bet.
func (s *Session) EditBet() {
	s.store.update(func(st *Store) { st.editor.Edit(st.bet) })
	s.notify()
}

// SetBetBuffer replaces the bet edit buffer.
func (s *Session) SetBetBuffer(text string) {
	s.store.update(func(st *Store) { st.editor.SetBuffer(text) })
	s.notify()
}

// SaveBet commits the edit buffer if it holds a non-negative integer. The
// editor closes either way; a rejected buffer leaves the committed bet as it
// was and is reported as a validation diagnostic.
func (s *Session) SaveBet() error {
	var err error
	s.store.update(func(st *Store) {
		if !st.editor.Editing() {
			return
		}
		st.bet, err = st.editor.Save(st.bet)
	})
	s.notify()

	if err != nil {
		s.report(DiagValidation, err)
		return fmt.Errorf("save bet: %w", err)
	}
	return nil
}

// CancelBet closes the bet editor without saving.
func (s *Session) CancelBet() {
	s.store.update(func(st *Store) { st.editor.Cancel() })
	s.notify()
}
