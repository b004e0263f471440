package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup configures the global logger to write to w, normally os.Stderr so
// that command output on stdout stays machine readable. JSON is written when
// format is "json" or APP_ENV is production; otherwise a console writer is
// used.
func Setup(w io.Writer, level, format string) {
	log.Logger = New(w, level, format)
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// New builds a logger writing to w with the same rules as Setup
func New(w io.Writer, level, format string) zerolog.Logger {
	var out io.Writer = w
	if format != "json" && os.Getenv("APP_ENV") != "production" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}
