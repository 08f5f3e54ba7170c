package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOCK_BACKEND", "")

	cfg := Load()
	require.Equal(t, "3001", cfg.Port)
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, "redis", cfg.LockBackend)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 5*time.Second, cfg.LockWait)
	require.Equal(t, "tsd.events", cfg.EventsQueue)
	require.Empty(t, cfg.AMQPURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("LOCK_BACKEND", "local")
	t.Setenv("LOCK_WAIT_MS", "250")
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("BOOTSTRAP_ADMIN", "  admin ")

	cfg := Load()
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, "local", cfg.LockBackend)
	require.Equal(t, 250*time.Millisecond, cfg.LockWait)
	require.Equal(t, time.Minute, cfg.SessionTTL)
	require.Equal(t, "admin", cfg.BootstrapAdmin)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "tsd", DBPort: "5432", DBSSLMode: "disable"}
	require.Equal(t, "host=db user=u password=p dbname=tsd port=5432 sslmode=disable", cfg.PostgresDSN())
}
