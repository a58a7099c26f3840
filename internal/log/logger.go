package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process logger: JSON lines in production, a console
// writer elsewhere.
func New(environment, service string) zerolog.Logger {
	return NewWithWriter(os.Stdout, environment, service)
}

func NewWithWriter(w io.Writer, environment, service string) zerolog.Logger {
	out := w
	if environment != "production" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(out).With().
		Timestamp().
		Str("env", environment).
		Str("service", service).
		Logger()

	if environment != "production" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return logger
}
