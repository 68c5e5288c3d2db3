package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the Redis counter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key.
	Prefix string
}

// Redis is a counter backed by Redis, for deployments where several
// processes must see the same counts.
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ Counter = (*Redis)(nil)

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisFromClient(client, cfg.Prefix), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "reqguard:rate:"
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

// Increment runs INCR and PTTL in one transaction. The first hit of a
// window (or a key that lost its TTL) sets the expiry, so the window is
// fixed from the first request rather than sliding with each one.
func (s *Redis) Increment(ctx context.Context, key string, window time.Duration) (Hit, error) {
	k := s.prefix + key
	now := s.now()

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Hit{}, fmt.Errorf("incrementing %q: %w", key, err)
	}

	remaining := ttl.Val()
	if incr.Val() == 1 || remaining < 0 {
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return Hit{}, fmt.Errorf("setting window on %q: %w", key, err)
		}
		remaining = window
	}

	return Hit{Count: incr.Val(), ResetAt: now.Add(remaining)}, nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}
