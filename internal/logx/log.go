// Package logx holds the process-wide zerolog logger.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the shared logger used throughout the project.
var Log = log.Logger

// Configure sets the global log level and switches to console output.
// The level string is tolerant of case and common synonyms.
func Configure(level string) {
	ConfigureOutput(level, os.Getenv("LOG_FORMAT"), os.Stderr)
}

// ConfigureOutput is Configure with an explicit format ("json" or console)
// and destination.
func ConfigureOutput(level, format string, w io.Writer) {
	zerolog.SetGlobalLevel(parseLevel(level))
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		Log = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	Log = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}

// parseLevel converts a string to a zerolog level.
// Accepts: all, debug, info, warn, warning, error, fatal, none.
// Unknown values default to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "all", "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "none", "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func init() {
	Configure(os.Getenv("LOG_LEVEL"))
}
