package session

import (
	"fmt"
	"time"
)

// DiagnosticKind classifies a non-fatal failure.
type DiagnosticKind int

const (
	DiagDecode DiagnosticKind = iota
	DiagUnknownType
	DiagSend
	DiagValidation
	DiagTransport
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagDecode:
		return "decode"
	case DiagUnknownType:
		return "unknown_type"
	case DiagSend:
		return "send"
	case DiagValidation:
		return "validation"
	case DiagTransport:
		return "transport"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Diagnostic is a failure that was absorbed without interrupting the session.
type Diagnostic struct {
	Kind DiagnosticKind
	Err  error
	At   time.Time
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Kind, d.Err)
}

// report logs a diagnostic and offers it to the diagnostics channel without
// blocking. A full or absent channel drops it.
func (s *Session) report(kind DiagnosticKind, err error) {
	s.logger.Debug("Diagnostic", "kind", kind, "error", err)

	if s.diagnostics == nil {
		return
	}
	select {
	case s.diagnostics <- Diagnostic{Kind: kind, Err: err, At: s.clock.Now()}:
	default:
	}
}
