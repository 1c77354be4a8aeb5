// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/livehike/livehike/internal/blob"
	"github.com/livehike/livehike/internal/database"
)

// Config is the complete service configuration.
type Config struct {
	Port        string
	Environment string
	RequireTLS  bool

	LogLevel string
	LogFile  string

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	Blob blob.Config

	PubSubProjectID string
	PubSubTopic     string

	// DefaultUser is the actor for requests without an X-User-Id header.
	DefaultUser  string
	SeedDemoData bool
}

// Load reads an optional .env file and then the environment. Values already
// set in the environment win over the file.
func Load(envFiles ...string) (Config, bool) {
	loadedFile := godotenv.Load(envFiles...) == nil
	return FromEnv(), loadedFile
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() Config {
	return Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		RequireTLS:  getBool("REQUIRE_TLS", false),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		OTelEnabled:     getBool("OTEL_ENABLED", false),
		OTLPEndpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getFloat("OTEL_SAMPLE_RATIO", 1),

		Blob: blob.Config{
			Backend:    strings.ToLower(getEnvOrDefault("BLOB_BACKEND", blob.BackendSQLite)),
			KeyPrefix:  getEnvOrDefault("BLOB_KEY_PREFIX", "livehike:"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "livehike.db"),
			Postgres:   postgresFromEnv(),
			Redis: database.RedisConfig{
				Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       getInt("REDIS_DB", 0),
			},
			Retry: database.DefaultRetryConfig(),
		},

		PubSubProjectID: os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubTopic:     os.Getenv("PUBSUB_TOPIC"),

		DefaultUser:  getEnvOrDefault("DEFAULT_USER", "current_user"),
		SeedDemoData: getBool("SEED_DEMO_DATA", true),
	}
}

// PubSubEnabled reports whether the event relay is configured.
func (c Config) PubSubEnabled() bool {
	return c.PubSubProjectID != "" && c.PubSubTopic != ""
}

func postgresFromEnv() database.Config {
	lifetime, err := time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		lifetime = 5 * time.Minute
	}

	return database.Config{
		Host:            getEnvOrDefault("DB_HOST", "localhost"),
		Port:            getInt("DB_PORT", 5432),
		User:            getEnvOrDefault("DB_USER", "livehike"),
		Password:        getEnvOrDefault("DB_PASSWORD", "localdev"),
		Database:        getEnvOrDefault("DB_NAME", "livehike"),
		SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: lifetime,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}
