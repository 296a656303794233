package client

import (
	"math"
	"time"
)

// Backoff describes how a dropped connection is redialled.
//
// MaxAttempts is the number of consecutive failed redials tolerated before
// giving up; zero disables reconnection entirely so a drop is terminal.
// Delays grow geometrically from Initial by Multiplier and are capped at Max.
type Backoff struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}

// NoReconnect is the policy where losing the connection ends the session.
var NoReconnect = Backoff{}

// Delay returns the wait before redial number attempt (zero based).
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Initial <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 2
	}

	d := float64(b.Initial) * math.Pow(mult, float64(attempt))
	if b.Max > 0 && d > float64(b.Max) {
		return b.Max
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
