package app

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/config"
	"github.com/adanyl0v/go-todo-client/internal/logging"
)

var globalLogger zerolog.Logger

func InitDefaultLogger() {
	globalLogger = logging.Default(os.Stdout)
	globalLogger.Info().Msg("initialized default logger")
}

func MustInitApplicationLogger() {
	cfg := config.Global()

	logger, err := logging.New(cfg.Env, os.Stdout)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("env", cfg.Env).
			Msg("unknown env")
		panic(err)
	}

	globalLogger = logger.With().Str("service", "todo-api").Logger()
	globalLogger.Info().Msg("initialized application logger")
}
