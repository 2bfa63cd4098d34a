package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log formats accepted by server.log_format.
const (
	LogConsole = "console"
	LogJSON    = "json"
)

func SetupLogging(level, format string) error {
	return SetupLoggingTo(os.Stderr, level, format)
}

// SetupLoggingTo points the global logger at w. An empty level means info
// and an empty format means console; anything else unknown is an error and
// leaves the logger untouched.
func SetupLoggingTo(w io.Writer, level, format string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(strings.ToLower(level)); err != nil {
			return fmt.Errorf("log level %q: %w", level, err)
		}
	}

	var out io.Writer
	switch strings.ToLower(format) {
	case "", LogConsole:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	case LogJSON:
		out = w
	default:
		return fmt.Errorf("log format %q: want %s or %s", format, LogConsole, LogJSON)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(out).With().Timestamp().Str("app", "launcher").Logger()
	return nil
}
