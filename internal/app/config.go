package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-todo-client/internal/config"
)

const minSigningKeyLength = 32

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	if len(cfg.JWT.SigningKey) < minSigningKeyLength {
		globalLogger.Error().
			Int("length", len(cfg.JWT.SigningKey)).
			Int("min_length", minSigningKeyLength).
			Msg("jwt signing key is too short")
		panic("jwt signing key is too short")
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Msg("read env")

	config.SetGlobal(cfg)
}
