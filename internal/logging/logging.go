// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures New. Zero values mean info level, console output, stderr.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// New returns a zerolog logger with timestamps. An unknown level or format is
// an error so typos in configuration surface at startup.
func New(o Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if o.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(o.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", o.Level, err)
		}
		level = l
	}

	w := o.Writer
	if w == nil {
		w = os.Stderr
	}

	switch strings.ToLower(o.Format) {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("log format %q: want %s or %s", o.Format, FormatConsole, FormatJSON)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
