package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	AppName    string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// RabbitURL is optional; an empty value disables notifications and the hit queue.
	RabbitURL string

	StatsURL     string
	StatsTimeout time.Duration

	LockTimeout time.Duration

	ViewsCacheSize int
	ViewsCacheTTL  time.Duration

	LogLevel slog.Level
}

func Load() *Config {
	// .env is optional when variables come from the environment (Docker, CI).
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		AppName:    getEnv("APP_NAME", "ewm-service"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "ewm_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RabbitURL: os.Getenv("RABBITMQ_URL"),

		StatsURL:     getEnv("STATS_URL", "http://localhost:9090"),
		StatsTimeout: getDuration("STATS_TIMEOUT", 2*time.Second),

		LockTimeout: getDuration("LOCK_TIMEOUT", 5*time.Second),

		ViewsCacheSize: getInt("VIEWS_CACHE_SIZE", 1024),
		ViewsCacheTTL:  getDuration("VIEWS_CACHE_TTL", 30*time.Second),

		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getDuration accepts Go duration strings ("750ms", "5s") or a bare number of milliseconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
