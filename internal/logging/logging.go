package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the global logger exactly once. level is a zerolog
// level name ("debug", "info", ...); unknown values fall back to info.
// out defaults to stdout.
func Configure(level string, out io.Writer) {
	once.Do(func() {
		lvl := zerolog.InfoLevel
		if level != "" {
			if parsed, err := zerolog.ParseLevel(level); err == nil {
				lvl = parsed
			}
		} else if env := os.Getenv("LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				lvl = parsed
			}
		}
		zerolog.SetGlobalLevel(lvl)
		zerolog.TimeFieldFormat = time.RFC3339

		if out == nil {
			out = os.Stdout
		}

		base = zerolog.New(out).With().
			Timestamp().
			Str("service", "podcite").
			Logger()
	})
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	Configure("", nil)
	return base
}

// Component returns a child logger annotated with a component name.
func Component(name string) zerolog.Logger {
	return Base().With().Str("component", name).Logger()
}
