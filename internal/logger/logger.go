// Package logger provides a configurable logger across proofgate
// components.
//
// The root logger uses github.com/rs/zerolog with a console writer.
// Operational logging only — the audit event log, not this logger, is the
// authoritative record of decisions.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	logger = zerolog.New(output).With().Timestamp().Logger()

	if strings.HasSuffix(os.Args[0], ".test") {
		logger = zerolog.Nop()
	}
}

// SetOutput changes the output of the global logger.
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// Set allows a host to override the global logger.
func Set(l zerolog.Logger) {
	logger = l
}

// Disable disables logging.
func Disable() {
	logger = zerolog.Nop()
}

// Logger returns the global logger. The pointer return allows chaining
// level methods directly off the call.
func Logger() *zerolog.Logger {
	return &logger
}
