package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// ErrUnknownEventType is returned for frames whose discriminant the client does
// not recognise. The protocol is forward compatible, so callers treat it as a
// diagnostic rather than a failure.
var ErrUnknownEventType = errors.New("unknown event type")

// DecodeError wraps a frame that could not be decoded.
type DecodeError struct {
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d byte frame: %v", len(e.Payload), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ModeConsole selects the interactive console mode on servers that ask for a
// mode when a connection opens.
const ModeConsole = "console"

// BetToken renders a committed bet as the outbound decimal token.
func BetToken(amount int) string {
	return strconv.Itoa(amount)
}

type envelope struct {
	Type EventType `json:"type"`
}

// Decode parses one inbound frame and returns a pointer to the concrete event
// type. Frames that are not JSON objects, lack a type, or carry malformed
// fields yield a *DecodeError. Unknown types yield ErrUnknownEventType along
// with the discriminant that was seen.
func Decode(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Payload: data, Err: err}
	}
	if env.Type == "" {
		return nil, &DecodeError{Payload: data, Err: errors.New("missing type")}
	}

	var v any
	switch env.Type {
	case TypeText:
		v = &Text{}
	case TypePrompt:
		v = &Prompt{}
	case TypeActions:
		v = &Actions{}
	case TypeHand:
		v = &Hand{}
	case TypeCardShown:
		v = &CardShown{}
	case TypeState:
		v = &State{}
	case TypeResult:
		v = &Result{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return nil, &DecodeError{Payload: data, Err: err}
	}

	if h, ok := v.(*Hand); ok && h.Owner != OwnerPlayer && h.Owner != OwnerDealer {
		return nil, &DecodeError{Payload: data, Err: fmt.Errorf("invalid hand owner %q", h.Owner)}
	}

	return v, nil
}

// Pool of buffers for Marshal
var bufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// Marshal encodes a server event, filling in its discriminant. It is used by
// the replay server and tests; the client itself only ever sends plain tokens.
func Marshal(v any) ([]byte, error) {
	switch msg := v.(type) {
	case *Text:
		msg.Type = TypeText
	case *Prompt:
		msg.Type = TypePrompt
	case *Actions:
		msg.Type = TypeActions
		if msg.Actions == nil {
			msg.Actions = []Action{}
		}
	case *Hand:
		msg.Type = TypeHand
	case *CardShown:
		msg.Type = TypeCardShown
	case *State:
		msg.Type = TypeState
	case *Result:
		msg.Type = TypeResult
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEventType, v)
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Copy out of the pooled buffer and drop the encoder's trailing newline
	out := make([]byte, buf.Len()-1)
	copy(out, buf.Bytes())
	return out, nil
}

// MustMarshal is Marshal for fixtures and scripts where failure is a bug.
func MustMarshal(v any) string {
	data, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
