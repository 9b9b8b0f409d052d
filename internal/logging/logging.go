// Package logging builds the zerolog logger used across the server.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the logger's level, output format and destination.
type Options struct {
	// Level is a zerolog level name. Empty means "info".
	Level string
	// Format is "console" for human-readable output or "json" for one object per line.
	Format string
	// Out defaults to os.Stderr.
	Out io.Writer
}

// New returns a logger configured by opts.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	switch opts.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", opts.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
