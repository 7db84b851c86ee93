// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. In dev the output is human-readable console
// format; everywhere else structured JSON on stderr.
func New(env string) zerolog.Logger {
	var log zerolog.Logger
	if env == "dev" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.With().Timestamp().Logger()
}
