// Package logger owns the process-wide zerolog logger. Packages without an
// injected logger log through the helpers here.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is the logging.level value from the config file
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	// Disabled silences everything, used by tests
	Disabled LogLevel = "disabled"
)

// Config represents logger configuration
type Config struct {
	Level LogLevel
	// Pretty switches from JSON lines to zerolog's console writer
	Pretty bool
	// Output defaults to os.Stdout
	Output io.Writer
}

var current zerolog.Logger

// Configure replaces the process-wide logger, including zerolog's global
// log.Logger, and returns it.
func Configure(config Config) zerolog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLevel(config.Level))

	if config.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	current = zerolog.New(out).With().Timestamp().Str("service", "rosterhub").Logger()
	log.Logger = current
	return current
}

// ParseLevel maps a config value to a zerolog level. Unknown values mean info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch LogLevel(strings.ToLower(strings.TrimSpace(string(level)))) {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel, "warning":
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case Disabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func Debug() *zerolog.Event {
	return current.Debug()
}

func Info() *zerolog.Event {
	return current.Info()
}

func Warn() *zerolog.Event {
	return current.Warn()
}

func Error() *zerolog.Event {
	return current.Error()
}

func init() {
	Configure(Config{Level: InfoLevel, Pretty: true})
}
