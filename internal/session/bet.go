package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidBet is returned when a saved bet buffer is not a non-negative integer.
var ErrInvalidBet = errors.New("invalid bet")

// BetEditor is the edit buffer layered over the committed bet. In VIEW the
// committed bet is shown; in EDIT the buffer is. The committed value only
// changes through Save.
type BetEditor struct {
	editing bool
	buffer  string
}

// Editing reports whether the editor is in EDIT
func (e *BetEditor) Editing() bool {
	return e.editing
}

// Buffer returns the current edit buffer
func (e *BetEditor) Buffer() string {
	return e.buffer
}

// Edit enters EDIT, seeding the buffer from the committed bet
func (e *BetEditor) Edit(committed int) {
	e.editing = true
	e.buffer = strconv.Itoa(committed)
}

// SetBuffer replaces the buffer while editing. It is ignored in VIEW.
func (e *BetEditor) SetBuffer(s string) {
	if e.editing {
		e.buffer = s
	}
}

// Save parses the buffer and returns the bet to commit. The editor always
// returns to VIEW; on error the caller keeps the previous committed bet.
func (e *BetEditor) Save(committed int) (int, error) {
	buffer := e.buffer
	e.editing = false
	e.buffer = ""

	amount, err := strconv.Atoi(strings.TrimSpace(buffer))
	if err != nil {
		return committed, fmt.Errorf("%w: %q is not a number", ErrInvalidBet, buffer)
	}
	if amount < 0 {
		return committed, fmt.Errorf("%w: %d is negative", ErrInvalidBet, amount)
	}
	return amount, nil
}

// Cancel returns to VIEW without touching the committed bet
func (e *BetEditor) Cancel() {
	e.editing = false
	e.buffer = ""
}
