/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Redis is a shared cache tier. Calls go through a circuit breaker so an
// unavailable server costs one fast miss instead of a timeout per request.
type Redis struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	prefix  string
}

// NewRedis connects to the Redis server at cfg.RedisURL. A failed ping is
// logged, not returned, since the cache is optional.
func NewRedis(cfg Config) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable at startup, continuing with memory cache", "error", err)
	}

	return newRedisWithClient(client, cfg), nil
}

func newRedisWithClient(client *redis.Client, cfg Config) *Redis {
	name := cfg.BreakerName
	if name == "" {
		name = "redis-cache"
	}

	window := cfg.BreakerWindow
	if window == 0 {
		window = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    window,
		Timeout:     2 * window,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Cache circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	})

	return &Redis{client: client, breaker: breaker, prefix: cfg.KeyPrefix}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string, dest any) bool {
	raw, _, ok := r.getRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		r.Delete(ctx, key)
		return false
	}
	return true
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode cache value", "key", key, "error", err)
		return
	}
	r.setRaw(ctx, key, raw, ttl)
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, key string) {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Del(ctx, r.prefix+key).Err()
	})
	if err != nil {
		logger.Debug("Cache delete failed", "key", key, "error", err)
	}
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// getRaw returns the stored bytes and the entry's remaining lifetime,
// which is zero or negative for keys without expiry.
func (r *Redis) getRaw(ctx context.Context, key string) ([]byte, time.Duration, bool) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		var (
			get *redis.StringCmd
			ttl *redis.DurationCmd
		)
		_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			get = pipe.Get(ctx, r.prefix+key)
			ttl = pipe.PTTL(ctx, r.prefix+key)
			return nil
		})
		if err != nil {
			return nil, err
		}
		raw, err := get.Bytes()
		if err != nil {
			return nil, err
		}
		return redisEntry{raw: raw, ttl: ttl.Val()}, nil
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Debug("Cache read failed", "key", key, "error", err)
		}
		return nil, 0, false
	}

	entry, ok := result.(redisEntry)
	return entry.raw, entry.ttl, ok
}

type redisEntry struct {
	raw []byte
	ttl time.Duration
}

func (r *Redis) setRaw(ctx context.Context, key string, raw []byte, ttl time.Duration) {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, r.prefix+key, raw, ttl).Err()
	})
	if err != nil {
		logger.Debug("Cache write failed", "key", key, "error", err)
	}
}
