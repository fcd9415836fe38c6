// Package logging provides structured logging and run artifact recording.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options configures the process logger
type Options struct {
	Level  string
	Pretty bool
	Writer io.Writer
}

// New builds a zerolog logger. Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("app", "patternlab").
		Logger()
}
