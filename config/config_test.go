package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("LOCK_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Empty(t, cfg.RabbitURL)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOCK_TIMEOUT", "250ms")
	t.Setenv("STATS_TIMEOUT", "1500")
	t.Setenv("VIEWS_CACHE_SIZE", "16")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.StatsTimeout)
	assert.Equal(t, 16, cfg.ViewsCacheSize)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOCK_TIMEOUT", "soon")
	t.Setenv("VIEWS_CACHE_SIZE", "many")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, 1024, cfg.ViewsCacheSize)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p", DBName: "ewm", DBSSLMode: "disable"}

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=ewm sslmode=disable", cfg.DSN())
}
