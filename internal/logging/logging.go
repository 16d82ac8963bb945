// Package logging builds the session-scoped zerolog logger used
// across the codec, extractor and transport layers, in the
// field-chained style the retrieval corpus's own zerolog usage follows
// (Info()/Debug()/Warn() with typed fields, then Msg()).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console-friendly logger writing to w (os.Stderr for
// normal CLI use, any io.Writer in tests that want to capture output).
// level controls the minimum emitted severity.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// Default is a ready-to-use logger at Info level writing to stderr,
// for callers (cmd/cimbar in particular) that don't need a custom
// sink or level.
func Default() zerolog.Logger {
	return New(os.Stderr, zerolog.InfoLevel)
}
