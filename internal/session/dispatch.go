package session

import (
	"errors"
	"fmt"

	"github.com/lox/bjtrainer/internal/protocol"
)

// Dispatch decodes one inbound frame and applies it to the store. Frames that
// fail to decode or carry an unknown type change nothing; the error is
// returned and reported as a diagnostic.
func (s *Session) Dispatch(data []byte) error {
	ev, err := protocol.Decode(data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownEventType) {
			s.logger.Debug("Ignoring unknown event", "error", err)
			s.report(DiagUnknownType, err)
		} else {
			s.report(DiagDecode, err)
		}
		return err
	}

	switch msg := ev.(type) {
	case *protocol.Text:
		s.logger.Debug("Server text", "text", msg.Text)
		if s.observer != nil {
			s.observer.TextReceived(msg.Text)
		}
		return nil

	case *protocol.Prompt:
		s.store.update(func(st *Store) { st.setPrompt(msg.Text) })

	case *protocol.Actions:
		s.store.update(func(st *Store) { st.setActions(msg.Actions) })

	case *protocol.Hand:
		s.store.update(func(st *Store) { st.setHand(msg.Owner, msg.Cards, msg.Value) })

	case *protocol.CardShown:
		s.store.update(func(st *Store) { st.setCardShown(msg.Card, msg.FaceDown) })

	case *protocol.State:
		s.store.update(func(st *Store) {
			if msg.Balance != nil {
				st.balance = *msg.Balance
			}
			if msg.Bet != nil {
				st.bet = *msg.Bet
			}
		})

	case *protocol.Result:
		if !msg.Outcome.Known() {
			s.logger.Warn("Unrecognised outcome", "outcome", msg.Outcome)
		}
		s.store.update(func(st *Store) { st.setResult(msg.Outcome, msg.Profit) })
		s.results.start(s.clearResult, s.completeHand)

	default:
		// Decode only returns the types above
		err := fmt.Errorf("%w: %T", protocol.ErrUnknownEventType, ev)
		s.report(DiagUnknownType, err)
		return err
	}

	s.notify()
	return nil
}

func (s *Session) clearResult() {
	s.store.update(func(st *Store) { st.result = nil })
	s.notify()
}

func (s *Session) completeHand() {
	s.logger.Debug("Hand complete")
	if s.onComplete != nil {
		s.onComplete()
	}
}
