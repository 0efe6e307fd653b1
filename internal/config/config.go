package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port           string
	StoreBackend   string
	DatabaseURL    string
	RedisURL       string
	LogLevel       string
	PrettyLog      bool
	AllowedOrigins string

	// Clock and economy settings applied to every new session.
	BaseTimeMS   int64
	IncrementMS  int64
	StartingGold int64
	BaseIncome   int64

	MaxPlayers       int
	TimerTick        time.Duration
	BroadcastBacklog int
	ShutdownTimeout  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:           envOrDefault("PORT", "3001"),
		StoreBackend:   envOrDefault("STORE_BACKEND", "memory"),
		DatabaseURL:    envOrDefault("DATABASE_URL", "postgres://localhost:5432/palmietopia?sslmode=disable"),
		RedisURL:       envOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		PrettyLog:      envOrDefaultBool("PRETTY_LOG", false),
		AllowedOrigins: envOrDefault("ALLOWED_ORIGINS", "*"),

		BaseTimeMS:   envOrDefaultInt64("BASE_TIME_MS", 120_000),
		IncrementMS:  envOrDefaultInt64("INCREMENT_MS", 45_000),
		StartingGold: envOrDefaultInt64("STARTING_GOLD", 50),
		BaseIncome:   envOrDefaultInt64("BASE_INCOME", 20),

		MaxPlayers:       envOrDefaultInt("MAX_PLAYERS", 5),
		TimerTick:        time.Duration(envOrDefaultInt("TIMER_TICK_MS", 1000)) * time.Millisecond,
		BroadcastBacklog: envOrDefaultInt("BROADCAST_BACKLOG", 100),
		ShutdownTimeout:  time.Duration(envOrDefaultInt("SHUTDOWN_TIMEOUT_S", 10)) * time.Second,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
