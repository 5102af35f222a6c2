package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"library/redis"
	"library/storage"
	"library/storage/memory"
	"library/storage/postgres"
	"library/storage/redisstore"
	"library/storage/sqlite"
	"library/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Поддерживаемые значения STORE_DRIVER
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds store configuration
type Config struct {
	Driver string
	// URI is the Postgres DSN or the SQLite path
	URI string
	// Timeout bounds every single store call
	Timeout time.Duration
	// Debug включает трассировку SQL запросов pgx
	Debug bool

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// GetConfigFromEnv creates config from environment variables
func GetConfigFromEnv() *Config {
	return &Config{
		Driver:          strings.ToLower(utils.GetEnvWithDefault("STORE_DRIVER", DriverMemory)),
		URI:             utils.GetEnvWithDefault("STORE_URI", ""),
		Timeout:         utils.GetEnvDuration("STORE_TIMEOUT", storage.DefaultTimeout),
		Debug:           utils.GetEnvBool("DEBUG_DB", false),
		MaxConns:        int32(utils.GetEnvInt("DB_MAX_CONNS", 10)),
		MinConns:        int32(utils.GetEnvInt("DB_MIN_CONNS", 0)),
		MaxConnLifetime: utils.GetEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		MaxConnIdleTime: utils.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
	}
}

// NewStore opens the backend selected by config.Driver and bounds each call
// with config.Timeout. The redis driver reuses the shared Redis service.
func NewStore(ctx context.Context, config *Config) (storage.Store, error) {
	if config == nil {
		config = GetConfigFromEnv()
	}

	store, err := openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", config.Driver, err)
	}

	utils.Logger.Info("Store created successfully",
		zap.String("driver", config.Driver),
		zap.Duration("timeout", config.Timeout),
	)

	return storage.WithTimeout(store, config.Timeout), nil
}

func openStore(ctx context.Context, config *Config) (storage.Store, error) {
	switch config.Driver {
	case DriverMemory:
		return memory.New(), nil

	case DriverRedis:
		svc, err := redis.GetRedisService()
		if err != nil {
			return nil, err
		}
		return redisstore.New(svc.GetClient(), svc.KeyPrefix()), nil

	case DriverPostgres:
		pool, err := newPool(ctx, config)
		if err != nil {
			return nil, err
		}
		store := postgres.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil

	case DriverSQLite:
		uri := config.URI
		if uri == "" {
			uri = "library.db"
		}
		return sqlite.Open(ctx, uri)

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", config.Driver)
	}
}

// newPool creates a pgx pool for the postgres store
func newPool(ctx context.Context, config *Config) (*pgxpool.Pool, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("STORE_URI is required for the %s driver", DriverPostgres)
	}

	poolConfig, err := pgxpool.ParseConfig(config.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connection config: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	poolConfig.MinConns = config.MinConns
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}
	if config.Debug {
		poolConfig.ConnConfig.Tracer = NewPGXTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	utils.Logger.Debug("Created postgres pool",
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.Uint16("port", poolConfig.ConnConfig.Port),
		zap.Bool("debug", config.Debug),
	)

	return pool, nil
}
