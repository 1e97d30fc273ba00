/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// Memory is an in-process LRU cache. Entries expire after the cache-wide TTL
// or their own shorter TTL, whichever comes first.
type Memory struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemory creates a memory cache holding at most size entries.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		now: time.Now,
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string, dest any) bool {
	entry, ok := m.lru.Get(key)
	if !ok {
		return false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.lru.Remove(key)
		return false
	}
	if err := json.Unmarshal(entry.raw, dest); err != nil {
		m.lru.Remove(key)
		return false
	}
	return true
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode cache value", "key", key, "error", err)
		return
	}
	m.setRaw(key, raw, ttl)
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, key string) {
	m.lru.Remove(key)
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) setRaw(key string, raw []byte, ttl time.Duration) {
	entry := memoryEntry{raw: raw}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, entry)
}
