package session

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// resultLifecycle owns the two timers started by a result: one clears the
// displayed result, the other completes the session. Starting a new lifecycle
// cancels the previous one, so a superseded result never fires either timer.
type resultLifecycle struct {
	clock         quartz.Clock
	clearDelay    time.Duration
	completeDelay time.Duration

	mu       sync.Mutex
	gen      uint64
	clear    *quartz.Timer
	complete *quartz.Timer
}

func newResultLifecycle(clock quartz.Clock, clearDelay, completeDelay time.Duration) *resultLifecycle {
	return &resultLifecycle{
		clock:         clock,
		clearDelay:    clearDelay,
		completeDelay: completeDelay,
	}
}

// start cancels any pending timers and schedules onClear and onComplete.
func (l *resultLifecycle) start(onClear, onComplete func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()
	l.gen++
	gen := l.gen

	l.clear = l.clock.AfterFunc(l.clearDelay, l.guard(gen, onClear), "result", "clear")
	l.complete = l.clock.AfterFunc(l.completeDelay, l.guard(gen, onComplete), "result", "complete")
}

// guard drops a callback whose lifecycle was superseded or stopped after the
// timer had already fired.
func (l *resultLifecycle) guard(gen uint64, fn func()) func() {
	return func() {
		l.mu.Lock()
		current := l.gen == gen
		l.mu.Unlock()

		if current {
			fn()
		}
	}
}

// stop cancels pending timers
func (l *resultLifecycle) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	l.gen++
}

func (l *resultLifecycle) stopLocked() {
	if l.clear != nil {
		l.clear.Stop()
		l.clear = nil
	}
	if l.complete != nil {
		l.complete.Stop()
		l.complete = nil
	}
}
