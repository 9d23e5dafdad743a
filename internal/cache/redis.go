package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/freekieb7/go-newsgate/internal/config"
	apperrors "github.com/freekieb7/go-newsgate/internal/errors"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key holds no value.
var ErrCacheMiss = errors.New("cache miss")

// Service provides caching functionality using Redis
type Service struct {
	client  clientInterface
	logger  *slog.Logger
	prefix  string
	enabled bool
}

// clientInterface abstracts Redis operations we actually use
type clientInterface interface {
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	get(ctx context.Context, key string) ([]byte, error)
	del(ctx context.Context, key string) error
	increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	deletePattern(ctx context.Context, pattern string) error
	ping(ctx context.Context) error
}

// Config holds Redis cache configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Prefix       string // Key prefix for namespacing
	Enabled      bool
}

// ConfigFrom derives the Redis settings from the application configuration.
func ConfigFrom(cfg config.Cache) *Config {
	return &Config{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: 1,
		MaxRetries:   1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		Prefix:       "newsgate:",
		Enabled:      cfg.Enabled,
	}
}

// NewService connects to Redis, or returns a Service that caches nothing
// when caching is disabled.
func NewService(ctx context.Context, config *Config, logger *slog.Logger) (*Service, error) {
	if !config.Enabled {
		logger.Info("Redis cache disabled")
		return NewNoOpService(logger), nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", "error", err, "addr", config.Addr)
		redisClient.Close()
		return nil, apperrors.CacheUnavailableError("failed to connect to Redis", err)
	}

	logger.Info("Connected to Redis cache", "addr", config.Addr, "db", config.DB)

	return &Service{
		client:  &redisClientWrapper{client: redisClient},
		logger:  logger,
		prefix:  config.Prefix,
		enabled: true,
	}, nil
}

// NewNoOpService returns a Service where every Get misses.
func NewNoOpService(logger *slog.Logger) *Service {
	return &Service{client: noOpClient{}, logger: logger}
}

func (s *Service) Enabled() bool {
	return s.enabled
}

func (s *Service) buildKey(key string) string {
	return s.prefix + key
}

// Set stores value as JSON under key for ttl.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := s.client.set(ctx, s.buildKey(key), data, ttl); err != nil {
		s.logger.Warn("Cache set failed", "key", key, "error", err)
		return err
	}

	s.logger.Debug("Cache set", "key", key, "ttl", ttl)
	return nil
}

// Get decodes the value under key into dest.
func (s *Service) Get(ctx context.Context, key string, dest any) error {
	val, err := s.client.get(ctx, s.buildKey(key))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return ErrCacheMiss
		}
		s.logger.Warn("Cache get failed", "key", key, "error", err)
		return err
	}

	if err := json.Unmarshal(val, dest); err != nil {
		s.logger.Warn("Cache unmarshal failed", "key", key, "error", err)
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	s.logger.Debug("Cache hit", "key", key)
	return nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.client.del(ctx, s.buildKey(key)); err != nil {
		s.logger.Warn("Cache delete failed", "key", key, "error", err)
		return err
	}
	return nil
}

// DeletePattern removes all keys matching a glob pattern
func (s *Service) DeletePattern(ctx context.Context, pattern string) error {
	if err := s.client.deletePattern(ctx, s.buildKey(pattern)); err != nil {
		s.logger.Warn("Cache delete pattern failed", "pattern", pattern, "error", err)
		return err
	}
	return nil
}

// Increment atomically increments a counter, (re)arming its expiry.
func (s *Service) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	result, err := s.client.increment(ctx, s.buildKey(key), ttl)
	if err != nil {
		s.logger.Warn("Cache increment failed", "key", key, "error", err)
		return 0, err
	}
	return result, nil
}

// GetOrSet decodes the cached value into dest, or calls fn on a miss and
// caches what it returns. Cache failures never fail the call; errors from fn
// are returned unchanged.
func (s *Service) GetOrSet(ctx context.Context, key string, dest any, ttl time.Duration, fn func() (any, error)) error {
	err := s.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("Cache error during get, generating fresh value", "key", key, "error", err)
	}

	value, err := fn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal generated value: %w", err)
	}

	if setErr := s.client.set(ctx, s.buildKey(key), data, ttl); setErr != nil {
		s.logger.Warn("Failed to cache generated value", "key", key, "error", setErr)
	}

	return json.Unmarshal(data, dest)
}

// Health checks the health of the cache service
func (s *Service) Health(ctx context.Context) error {
	return s.client.ping(ctx)
}

func (s *Service) Close() error {
	if wrapper, ok := s.client.(*redisClientWrapper); ok {
		return wrapper.client.Close()
	}
	return nil
}

// redisClientWrapper wraps redis.Client to implement our interface
type redisClientWrapper struct {
	client *redis.Client
}

func (r *redisClientWrapper) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisClientWrapper) get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return val, nil
}

func (r *redisClientWrapper) del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisClientWrapper) increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipeline := r.client.TxPipeline()
	incrCmd := pipeline.Incr(ctx, key)
	pipeline.Expire(ctx, key, ttl)

	if _, err := pipeline.Exec(ctx); err != nil {
		return 0, err
	}
	return incrCmd.Val(), nil
}

func (r *redisClientWrapper) deletePattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisClientWrapper) ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// noOpClient stores nothing
type noOpClient struct{}

func (noOpClient) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (noOpClient) get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (noOpClient) del(ctx context.Context, key string) error {
	return nil
}

func (noOpClient) increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, nil
}

func (noOpClient) deletePattern(ctx context.Context, pattern string) error {
	return nil
}

func (noOpClient) ping(ctx context.Context) error {
	return nil
}
