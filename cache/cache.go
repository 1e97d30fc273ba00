/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/humaidq/ennu/logging"
)

var logger = logging.Logger(logging.SourceCache)

// Cache stores JSON-encodable values. Every failure is treated as a miss.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Config controls the tiered cache.
type Config struct {
	RedisURL      string
	MemorySize    int
	MemoryTTL     time.Duration
	KeyPrefix     string
	BreakerName   string
	DialTimeout   time.Duration
	BreakerWindow time.Duration
	// LocalTTL caps how long a node keeps its own copy of a shared entry.
	// Deletes on other nodes only reach this node once the copy expires.
	LocalTTL time.Duration
}

// remoteTier is the shared cache behind the in-process LRU.
type remoteTier interface {
	getRaw(ctx context.Context, key string) ([]byte, time.Duration, bool)
	setRaw(ctx context.Context, key string, raw []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// Tiered checks an in-process LRU before falling back to Redis.
type Tiered struct {
	memory   *Memory
	remote   remoteTier
	localTTL time.Duration
}

// New builds a tiered cache. An empty RedisURL yields a memory-only cache.
func New(cfg Config) (*Tiered, error) {
	if cfg.MemorySize == 0 {
		cfg.MemorySize = 1024
	}
	if cfg.MemoryTTL == 0 {
		cfg.MemoryTTL = 5 * time.Minute
	}
	if cfg.LocalTTL == 0 {
		cfg.LocalTTL = 30 * time.Second
	}

	t := &Tiered{memory: NewMemory(cfg.MemorySize, cfg.MemoryTTL), localTTL: cfg.LocalTTL}

	if cfg.RedisURL != "" {
		remote, err := NewRedis(cfg)
		if err != nil {
			return nil, err
		}
		t.remote = remote
	}

	return t, nil
}

// Get implements Cache.
func (t *Tiered) Get(ctx context.Context, key string, dest any) bool {
	if t.memory.Get(ctx, key, dest) {
		return true
	}
	if t.remote == nil {
		return false
	}

	raw, remaining, ok := t.remote.getRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		t.remote.Delete(ctx, key)
		return false
	}

	t.memory.setRaw(key, raw, t.localLifetime(remaining))
	return true
}

// localLifetime bounds a local copy by the shared entry's lifetime and by
// localTTL. ttl <= 0 means the shared entry does not expire.
func (t *Tiered) localLifetime(ttl time.Duration) time.Duration {
	if t.remote == nil {
		return ttl
	}
	if ttl <= 0 || ttl > t.localTTL {
		return t.localTTL
	}
	return ttl
}

// Set implements Cache.
func (t *Tiered) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode cache value", "key", key, "error", err)
		return
	}

	t.memory.setRaw(key, raw, t.localLifetime(ttl))
	if t.remote != nil {
		t.remote.setRaw(ctx, key, raw, ttl)
	}
}

// Delete implements Cache.
func (t *Tiered) Delete(ctx context.Context, key string) {
	t.memory.Delete(ctx, key)
	if t.remote != nil {
		t.remote.Delete(ctx, key)
	}
}

// Close releases the Redis connection, if any.
func (t *Tiered) Close() error {
	if t.remote == nil {
		return nil
	}
	return t.remote.Close()
}

// Nop is a cache that never stores anything.
type Nop struct{}

// Get implements Cache.
func (Nop) Get(context.Context, string, any) bool { return false }

// Set implements Cache.
func (Nop) Set(context.Context, string, any, time.Duration) {}

// Delete implements Cache.
func (Nop) Delete(context.Context, string) {}
