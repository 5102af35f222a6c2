package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"library/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisUnavailableError represents an error when Redis is unavailable
type RedisUnavailableError struct {
	Err error
}

func (e *RedisUnavailableError) Error() string {
	return fmt.Sprintf("redis is unavailable: %v", e.Err)
}

func (e *RedisUnavailableError) Unwrap() error {
	return e.Err
}

// IsRedisUnavailable checks if the error is RedisUnavailableError
func IsRedisUnavailable(err error) bool {
	var target *RedisUnavailableError
	return errors.As(err, &target)
}

// RedisConfig stores Redis configuration parameters
type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	KeyPrefix       string
	PoolSize        int
	MinIdleConns    int
	MaxRetries      int
	MinRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolTimeout     time.Duration
	IdleTimeout     time.Duration
	MaxConnAge      time.Duration
}

// NewRedisConfigFromEnv creates Redis configuration from environment variables
func NewRedisConfigFromEnv() *RedisConfig {
	return &RedisConfig{
		Host:            utils.GetEnvWithDefault("REDIS_HOST", "localhost"),
		Port:            utils.GetEnvWithDefault("REDIS_PORT", "6379"),
		Password:        utils.GetEnvWithDefault("REDIS_PASSWORD", ""),
		DB:              utils.GetEnvInt("REDIS_DB", 0),
		KeyPrefix:       utils.GetEnvWithDefault("REDIS_KEY_PREFIX", "library"),
		PoolSize:        utils.GetEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns:    utils.GetEnvInt("REDIS_MIN_IDLE_CONNS", 5),
		MaxRetries:      utils.GetEnvInt("REDIS_MAX_RETRIES", 3),
		MinRetryBackoff: utils.GetEnvDuration("REDIS_RETRY_BACKOFF", 100*time.Millisecond),
		DialTimeout:     utils.GetEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:     utils.GetEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:    utils.GetEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		PoolTimeout:     utils.GetEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		IdleTimeout:     utils.GetEnvDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		MaxConnAge:      utils.GetEnvDuration("REDIS_MAX_CONN_AGE", 0),
	}
}

// Addr returns host:port
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Service владеет общим Redis клиентом: им пользуются хранилище и публикатор событий.
type Service struct {
	client *redis.Client
	config *RedisConfig
	mu     sync.RWMutex
}

var (
	instance    *Service
	instanceErr error
	instanceMu  sync.Mutex
)

// GetRedisService returns the process-wide service built from the environment.
// The first failed connection attempt is remembered.
func GetRedisService() (*Service, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil && instanceErr == nil {
		instance, instanceErr = NewService(NewRedisConfigFromEnv())
	}
	return instance, instanceErr
}

// CloseRedisService closes the process-wide service if it was ever created
func CloseRedisService() error {
	instanceMu.Lock()
	svc := instance
	instanceMu.Unlock()

	if svc == nil {
		return nil
	}
	return svc.Close()
}

// NewService connects to Redis and checks the connection
func NewService(config *RedisConfig) (*Service, error) {
	client, err := newRedisClient(config)
	if err != nil {
		return nil, &RedisUnavailableError{Err: err}
	}
	return &Service{client: client, config: config}, nil
}

// NewServiceWithClient wraps an existing client (tests, miniredis)
func NewServiceWithClient(client *redis.Client, config *RedisConfig) *Service {
	if config == nil {
		config = &RedisConfig{KeyPrefix: "library"}
	}
	return &Service{client: client, config: config}
}

// GetClient returns the Redis client or nil after Close
func (s *Service) GetClient() *redis.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// KeyPrefix returns the namespace for all keys of this service
func (s *Service) KeyPrefix() string {
	return s.config.KeyPrefix
}

// Ping checks that Redis answers
func (s *Service) Ping(ctx context.Context) error {
	client := s.GetClient()
	if client == nil {
		return &RedisUnavailableError{Err: fmt.Errorf("redis client is nil")}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return &RedisUnavailableError{Err: err}
	}
	return nil
}

// Close closes Redis connection. Повторный вызов ничего не делает.
func (s *Service) Close() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// newRedisClient creates new Redis client instance
func newRedisClient(config *RedisConfig) (*redis.Client, error) {
	utils.Logger.Debug("Initializing Redis connection",
		zap.String("host", config.Host),
		zap.String("port", config.Port),
		zap.String("password_set", map[bool]string{true: "yes", false: "no"}[config.Password != ""]),
	)

	opts := &redis.Options{
		Addr: config.Addr(),
		DB:   config.DB,
	}

	// Добавляем пароль только если он указан
	if config.Password != "" {
		opts.Password = config.Password
	}

	opts.PoolSize = config.PoolSize
	opts.MinIdleConns = config.MinIdleConns
	opts.MaxRetries = config.MaxRetries
	opts.MinRetryBackoff = config.MinRetryBackoff
	opts.DialTimeout = config.DialTimeout
	opts.ReadTimeout = config.ReadTimeout
	opts.WriteTimeout = config.WriteTimeout
	opts.PoolTimeout = config.PoolTimeout
	opts.IdleTimeout = config.IdleTimeout
	opts.MaxConnAge = config.MaxConnAge

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		utils.Logger.Warn("Redis is not available",
			zap.Error(err),
			zap.String("addr", opts.Addr),
		)
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	utils.Logger.Info("Successfully connected to Redis",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("pool_size", opts.PoolSize),
	)

	return client, nil
}
