package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	HTTPAddr    string
	DatabaseURL string

	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret string
	JWTIssuer string

	// RabbitMQ; empty URL disables the outbox worker (dev only)
	RabbitURL      string
	RabbitExchange string

	OutboxInterval    time.Duration
	OutboxBatchSize   int
	OutboxMaxAttempts int

	// Redis; empty URL disables caching
	RedisURL        string
	CacheTTLDetails time.Duration // GetPublic
	CacheTTLList    time.Duration // ListPublic, first page only

	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "dev"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8081"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		DBMaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		RabbitURL:      getEnv("RABBIT_URL", ""),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "city.events"),

		OutboxInterval:    getDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:   getIntEnv("OUTBOX_BATCH_SIZE", 20),
		OutboxMaxAttempts: getIntEnv("OUTBOX_MAX_ATTEMPTS", 10),

		RedisURL:        getEnv("REDIS_URL", ""),
		CacheTTLDetails: getDuration("CACHE_TTL_DETAILS", 5*time.Minute),
		CacheTTLList:    getDuration("CACHE_TTL_LIST", 15*time.Second),

		// 100 reqs / 1 min per IP
		RLEnabled: getBool("RL_ENABLED", true),
		RLLimit:   getIntEnv("RL_IP_LIMIT", 100),
		RLWindow:  getDuration("RL_IP_WINDOW", time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		HTTPReadTimeout:  getDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second),
		HTTPIdleTimeout:  getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:  getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing DATABASE_URL")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("missing JWT_SECRET")
	}
	if c.AppEnv != "dev" && c.RabbitURL == "" {
		return fmt.Errorf("missing RABBIT_URL (required when APP_ENV != dev)")
	}
	if c.OutboxBatchSize <= 0 || c.OutboxMaxAttempts <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE and OUTBOX_MAX_ATTEMPTS must be > 0")
	}
	return nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
