// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(8, time.Minute)

	m.Set(ctx, "a", sample{Name: "ldl", Value: 99}, 0)

	var got sample
	require.True(t, m.Get(ctx, "a", &got))
	assert.Equal(t, sample{Name: "ldl", Value: 99}, got)

	m.Delete(ctx, "a")
	assert.False(t, m.Get(ctx, "a", &got))
}

func TestMemoryEntryTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(8, time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set(ctx, "short", sample{Name: "x"}, time.Second)

	var got sample
	require.True(t, m.Get(ctx, "short", &got))

	now = now.Add(2 * time.Second)
	assert.False(t, m.Get(ctx, "short", &got))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryEvictsOldest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(2, time.Minute)
	m.Set(ctx, "a", 1, 0)
	m.Set(ctx, "b", 2, 0)
	m.Set(ctx, "c", 3, 0)

	var v int
	assert.False(t, m.Get(ctx, "a", &v))
	assert.True(t, m.Get(ctx, "c", &v))
	assert.Equal(t, 3, v)
}

func TestTieredMemoryOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, err := New(Config{})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	c.Set(ctx, "k", []string{"x", "y"}, time.Minute)

	var got []string
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, []string{"x", "y"}, got)

	c.Delete(ctx, "k")
	assert.False(t, c.Get(ctx, "k", &got))
}

func TestTieredRejectsBadRedisURL(t *testing.T) {
	t.Parallel()

	_, err := New(Config{RedisURL: "not-a-url://"})
	assert.Error(t, err)
}

func TestRedisUnavailableDegradesToMiss(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := newRedisWithClient(client, Config{BreakerName: "test"})
	defer func() { _ = r.Close() }()

	ctx := context.Background()
	var got sample
	for range 6 {
		r.Set(ctx, "k", sample{Name: "n"}, time.Minute)
		assert.False(t, r.Get(ctx, "k", &got))
	}

	assert.Equal(t, gobreaker.StateOpen, r.breaker.State())
}

func TestNopNeverHits(t *testing.T) {
	t.Parallel()

	var c Cache = Nop{}
	c.Set(context.Background(), "k", 1, time.Minute)

	var v int
	assert.False(t, c.Get(context.Background(), "k", &v))
}

type fakeRemote struct {
	raw []byte
	ttl time.Duration
}

func (f *fakeRemote) getRaw(context.Context, string) ([]byte, time.Duration, bool) {
	if f.raw == nil {
		return nil, 0, false
	}
	return f.raw, f.ttl, true
}

func (f *fakeRemote) setRaw(_ context.Context, _ string, raw []byte, ttl time.Duration) {
	f.raw, f.ttl = raw, ttl
}

func (f *fakeRemote) Delete(context.Context, string) { f.raw = nil }

func (f *fakeRemote) Close() error { return nil }

func newTieredWithRemote(remote remoteTier, localTTL time.Duration) (*Tiered, *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t := &Tiered{memory: NewMemory(16, time.Hour), remote: remote, localTTL: localTTL}
	t.memory.now = func() time.Time { return now }
	return t, &now
}

func TestTieredPromotionKeepsRemoteExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &fakeRemote{raw: []byte(`{"name":"ldl","value":99}`), ttl: 5 * time.Second}
	c, now := newTieredWithRemote(remote, time.Minute)

	var got sample
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "ldl", got.Name)

	remote.raw = nil
	*now = now.Add(3 * time.Second)
	assert.True(t, c.Get(ctx, "k", &got), "local copy still valid")

	*now = now.Add(3 * time.Second)
	assert.False(t, c.Get(ctx, "k", &got), "local copy must not outlive the shared entry")
}

func TestTieredLocalCopyBoundedByLocalTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &fakeRemote{}
	c, now := newTieredWithRemote(remote, 30*time.Second)

	c.Set(ctx, "k", sample{Name: "a"}, 10*time.Minute)
	assert.Equal(t, 10*time.Minute, remote.ttl)

	// Another node invalidated the shared entry.
	remote.raw = nil

	var got sample
	require.True(t, c.Get(ctx, "k", &got))
	*now = now.Add(31 * time.Second)
	assert.False(t, c.Get(ctx, "k", &got))

	remote.raw, remote.ttl = []byte(`{"name":"b"}`), -1
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "b", got.Name)
	*now = now.Add(31 * time.Second)
	remote.raw = nil
	assert.False(t, c.Get(ctx, "k", &got), "non-expiring shared entries are still bounded locally")
}
