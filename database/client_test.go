package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("STORE_URI", "/tmp/library.db")
	t.Setenv("STORE_TIMEOUT", "250ms")

	config := GetConfigFromEnv()
	assert.Equal(t, DriverSQLite, config.Driver)
	assert.Equal(t, "/tmp/library.db", config.URI)
	assert.Equal(t, 250*time.Millisecond, config.Timeout)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := NewStore(ctx, &Config{Driver: DriverMemory, Timeout: time.Second})
		require.NoError(t, err)
		defer store.Close()
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "library.db")
		store, err := NewStore(ctx, &Config{Driver: DriverSQLite, URI: path, Timeout: time.Second})
		require.NoError(t, err)
		defer store.Close()

		n, err := store.CountBooks(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("postgres without uri", func(t *testing.T) {
		_, err := NewStore(ctx, &Config{Driver: DriverPostgres})
		assert.ErrorContains(t, err, "STORE_URI")
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewStore(ctx, &Config{Driver: "mongo"})
		assert.ErrorContains(t, err, "mongo")
	})
}

func TestPGXLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, pgxLevel(tracelog.LogLevelInfo))
	assert.Equal(t, zapcore.WarnLevel, pgxLevel(tracelog.LogLevelWarn))
	assert.Equal(t, zapcore.ErrorLevel, pgxLevel(tracelog.LogLevelError))
}
