package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Factory builds a session for the trainer. onComplete must be wired to the
// session's completion callback.
type Factory func(onComplete func()) *Session

// Trainer plays hands back to back. Each hand gets a fresh session; when the
// session's result lifecycle completes the trainer closes it, bumps the hand
// counter and opens the next one.
type Trainer struct {
	factory Factory
	logger  *log.Logger

	mu        sync.RWMutex
	hand      int
	current   *Session
	onSession func(hand int, s *Session)
}

// NewTrainer creates a trainer. onSession, if set, is called each time a new
// session starts.
func NewTrainer(factory Factory, logger *log.Logger, onSession func(hand int, s *Session)) *Trainer {
	return &Trainer{
		factory:   factory,
		logger:    logger.WithPrefix("trainer"),
		hand:      1,
		onSession: onSession,
	}
}

// Hand returns the number of the hand being played
func (t *Trainer) Hand() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hand
}

// Current returns the active session, or nil before Run starts one
func (t *Trainer) Current() *Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Run plays sessions until ctx is cancelled or a session ends without
// completing a hand, in which case that session's error is returned.
func (t *Trainer) Run(ctx context.Context) error {
	for {
		completed := make(chan struct{}, 1)
		s := t.factory(func() {
			select {
			case completed <- struct{}{}:
			default:
			}
		})

		t.mu.Lock()
		t.current = s
		hand := t.hand
		t.mu.Unlock()

		t.logger.Info("Starting hand", "hand", hand, "session", s.ID())
		if t.onSession != nil {
			t.onSession(hand, s)
		}

		errCh := make(chan error, 1)
		go func() { errCh <- s.Run(ctx) }()

		select {
		case <-completed:
			_ = s.Close()
			<-errCh

			t.mu.Lock()
			t.hand++
			t.mu.Unlock()

			if ctx.Err() != nil {
				return nil
			}

		case err := <-errCh:
			_ = s.Close()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
