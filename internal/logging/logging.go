package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/config"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
}

// Default is used until the configuration is read.
func Default(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}

// New builds the logger for env. The local env gets a human readable
// console writer and the most verbose level.
func New(env string, w io.Writer) (zerolog.Logger, error) {
	var level zerolog.Level
	switch env {
	case config.EnvDev:
		level = zerolog.DebugLevel
	case config.EnvProd:
		level = zerolog.InfoLevel
	case config.EnvLocal:
		level = zerolog.TraceLevel

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = w
		w = consoleWriter
	default:
		return zerolog.Nop(), fmt.Errorf("unknown env: %s", env)
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Str("env", env).
		Logger(), nil
}
