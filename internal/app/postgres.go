package app

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/go-todo-client/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

var globalPostgresPool *pgxpool.Pool

func MustConnectPostgres() {
	cfg := config.Global().Postgres
	connURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host,
		cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	globalPostgresPool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping postgres")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")
}

// MustMigratePostgres applies the embedded schema files in name order.
// Every statement in them is idempotent.
func MustMigratePostgres() {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		panic(err)
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrations.ReadFile(name)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("file", name).
				Msg("failed to read migration")
			panic(err)
		}

		_, err = globalPostgresPool.Exec(context.Background(), string(script))
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("file", name).
				Msg("failed to apply migration")
			panic(err)
		}
		globalLogger.Debug().
			Str("file", name).
			Msg("applied migration")
	}
	globalLogger.Info().
		Int("count", len(names)).
		Msg("migrated postgres")
}

func DisconnectPostgres() {
	globalPostgresPool.Close()
	globalLogger.Info().Msg("disconnected from postgres")
}
