package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string
	AdminToken    string

	// PostgresDSN selects the durable store. Empty means in-memory stores,
	// which keeps local development and tests dependency-free.
	PostgresDSN string

	Redis RedisConfig
	Relay RelayConfig
}

// RedisConfig tunes the optional Redis client used for the rating cache and
// the relay cursor checkpoint.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RelayConfig controls the ledger relay worker that tails the event log and
// publishes to Kafka.
type RelayConfig struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
}

// FromEnv reads configuration from the environment, applying development
// defaults where a variable is unset.
func FromEnv() Config {
	cfg := Config{
		Addr:          envString("TRACELINK_ADDR", ":8080"),
		JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Relay: RelayConfig{
			Topic:        envString("KAFKA_EVENTS_TOPIC", "tracelink.ledger.events"),
			PollInterval: envDuration("RELAY_POLL_INTERVAL", 2*time.Second),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Relay.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
