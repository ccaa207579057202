package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.InfoLevel

var RootLogger zerolog.Logger = zerolog.New(
	zerolog.NewConsoleWriter(
		func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr },
		func(w *zerolog.ConsoleWriter) { w.TimeFormat = "15:04:05.000" })).Level(DefaultLevel).
	With().Timestamp().Logger()

// SetLevel changes the level of RootLogger. Loggers derived from RootLogger
// before the call keep their old level, so call it before building components.
func SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	RootLogger = RootLogger.Level(lvl)
	return nil
}

// ParseLevel accepts zerolog level names, case-insensitive. Empty means
// DefaultLevel.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == "" {
		return DefaultLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q: %w", level, err)
	}
	return lvl, nil
}
