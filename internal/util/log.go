package util

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFromContext returns the request scoped logger, or the global one when ctx carries none.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := log.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}

	return l
}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// LoggerConfig controls the global logger.
type LoggerConfig struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
	LogCaller          bool
}

// ConfigureLogger applies cfg to the global zerolog logger.
func ConfigureLogger(cfg LoggerConfig) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.Level)

	logger := log.Logger
	if cfg.PrettyPrintConsole {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		logger = logger.Output(os.Stderr)
	}
	if cfg.LogCaller {
		logger = logger.With().Caller().Logger()
	}

	log.Logger = logger
}
