package blob_test

import (
	"time"

	"github.com/livehike/livehike/internal/database"
)

func databaseRedis(addr string) database.RedisConfig {
	return database.RedisConfig{Addr: addr}
}

func fastRetry() database.RetryConfig {
	return database.RetryConfig{
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		MaxElapsedTime:  50 * time.Millisecond,
	}
}
