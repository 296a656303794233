package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger creates a logger writing to w at the given level name. Unknown
// levels fall back to warn.
func NewLogger(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// ParseLevel maps a level name onto a log level
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}

// SetupFileLogger opens (truncating) path and returns a logger writing to it
// along with a function that closes the file. The terminal belongs to the
// UI, so nothing is written to stderr.
func SetupFileLogger(path, level string) (*log.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f, level), f.Close, nil
}
