/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"context"
	"errors"
	"time"

	"github.com/humaidq/ennu/cache"
)

// RangeProvider supplies reference ranges by canonical biomarker key.
// Unknown keys return ErrReferenceRangeNotFound.
type RangeProvider interface {
	GetReferenceRange(ctx context.Context, key string) (*ReferenceRange, error)
}

// StaticProvider serves reference ranges from memory.
type StaticProvider map[string]*ReferenceRange

// GetReferenceRange implements RangeProvider.
func (p StaticProvider) GetReferenceRange(_ context.Context, key string) (*ReferenceRange, error) {
	rr, ok := p[key]
	if !ok || rr == nil {
		return nil, ErrReferenceRangeNotFound
	}
	return rr, nil
}

const referenceRangeCachePrefix = "ennu:rr:"

// CachedProvider memoizes another provider's ranges.
type CachedProvider struct {
	next  RangeProvider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps next with c.
func NewCachedProvider(next RangeProvider, c cache.Cache, ttl time.Duration) *CachedProvider {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl}
}

// GetReferenceRange implements RangeProvider.
func (p *CachedProvider) GetReferenceRange(ctx context.Context, key string) (*ReferenceRange, error) {
	var rr ReferenceRange
	if p.cache.Get(ctx, referenceRangeCachePrefix+key, &rr) {
		return &rr, nil
	}

	found, err := p.next.GetReferenceRange(ctx, key)
	if err != nil {
		return nil, err
	}

	p.cache.Set(ctx, referenceRangeCachePrefix+key, found, p.ttl)
	return found, nil
}

// Invalidate drops a cached range.
func (p *CachedProvider) Invalidate(ctx context.Context, key string) {
	p.cache.Delete(ctx, referenceRangeCachePrefix+key)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrReferenceRangeNotFound)
}
