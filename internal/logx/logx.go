// Package logx builds the diagnostic logger. Diagnostics always go to
// stderr so stdout stays reserved for user-facing output.
package logx

import (
	"io"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w. Debug records are emitted only when debug is set.
func New(w io.Writer, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "m",
		ReportTimestamp: debug,
		Level:           log.WarnLevel,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
