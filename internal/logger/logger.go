// Package logger builds the root zerolog logger. Packages receive it through
// their SetLogger hooks at startup, so everything shares one sink and level.
package logger

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// New builds the root logger at the given level. An unknown level warns and
// falls back to info.
func New(level string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = zerolog.InfoLevel
		// The root logger isn't built yet, so this warning goes out raw.
		fmt.Fprintf(os.Stderr, "Unknown log level %q, using info\n", level)
	}

	l := zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(logLevel).
		With().
		Timestamp().
		Caller().
		Str("app", "quill").
		Str("revision", buildRevision()).
		Logger()

	zerolog.DefaultContextLogger = &l
	return l
}

func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return "unknown"
}
