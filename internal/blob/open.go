package blob

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/livehike/livehike/internal/database"
)

// Config selects and configures a backend.
type Config struct {
	Backend    string
	KeyPrefix  string
	SQLitePath string
	Postgres   database.Config
	Redis      database.RedisConfig
	Retry      database.RetryConfig
}

// Open constructs the configured backend. Remote backends (PostgreSQL,
// Redis) are wrapped in a ResilientStore.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (Store, error) {
	onStateChange := func(name string, from, to gobreaker.State) {
		log.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("blob backend circuit breaker state changed")
	}

	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil

	case BackendSQLite, "":
		path := cfg.SQLitePath
		if path == "" {
			path = "livehike.db"
		}
		return OpenSQLite(ctx, path)

	case BackendPostgres:
		pool, err := database.Connect(ctx, cfg.Postgres, cfg.Retry)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool, pool.Close)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		bc := DefaultBreakerConfig("blob-postgres")
		bc.OnStateChange = onStateChange
		return NewResilientStore(store, bc), nil

	case BackendRedis:
		client, err := database.ConnectRedis(ctx, cfg.Redis, cfg.Retry)
		if err != nil {
			return nil, err
		}
		bc := DefaultBreakerConfig("blob-redis")
		bc.OnStateChange = onStateChange
		return NewResilientStore(NewRedisStore(client, cfg.KeyPrefix), bc), nil

	default:
		return nil, fmt.Errorf("unsupported blob backend: %q", cfg.Backend)
	}
}
