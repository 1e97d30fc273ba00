/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package completeness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/ennu/cache"
	"github.com/humaidq/ennu/logging"
	"github.com/humaidq/ennu/rules"
)

var logger = logging.Logger(logging.SourceEngine)

const (
	cachePrefix = "ennu:completeness:"
	cacheTTL    = 10 * time.Minute
)

// Store is per-user metadata storage.
type Store interface {
	GetAllUserMeta(ctx context.Context, userID uuid.UUID) (map[string][]byte, error)
	GetUserMeta(ctx context.Context, userID uuid.UUID, key string) ([]byte, error)
	SetUserMeta(ctx context.Context, userID uuid.UUID, key string, value []byte) error
}

// Tracker computes and persists profile completeness.
type Tracker struct {
	store Store
	rules *rules.Rules
	cache cache.Cache
	now   func() time.Time
}

// NewTracker creates a Tracker. A nil cache disables caching.
func NewTracker(store Store, r *rules.Rules, c cache.Cache) *Tracker {
	if c == nil {
		c = cache.Nop{}
	}
	return &Tracker{store: store, rules: r, cache: c, now: time.Now}
}

func cacheKey(userID uuid.UUID) string {
	return cachePrefix + userID.String()
}

// Calculate scores the user's profile and persists the record. When the
// profile cannot be read it returns a zero record with the error; when the
// record cannot be saved it returns the computed record with the error.
func (t *Tracker) Calculate(ctx context.Context, userID uuid.UUID) (Record, error) {
	now := t.now().UTC()

	meta, err := t.store.GetAllUserMeta(ctx, userID)
	if err != nil {
		logger.Error("Failed to read profile for completeness", "user_id", userID, "error", err)
		return emptyRecord(now), fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
	}

	rec := Evaluate(t.rules, meta, now)

	raw, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("failed to encode completeness record: %w", err)
	}

	if err := t.store.SetUserMeta(ctx, userID, MetaProfileCompleteness, raw); err != nil {
		logger.Error("Failed to persist completeness", "user_id", userID, "error", err)
		t.cache.Delete(ctx, cacheKey(userID))
		return rec, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	t.cache.Set(ctx, cacheKey(userID), rec, cacheTTL)

	logger.Debug("Completeness calculated", "user_id", userID, "overall", rec.OverallPercentage, "accuracy", rec.AccuracyLevel)

	return rec, nil
}

// Invalidate drops the cached record so the next display read goes to
// storage.
func (t *Tracker) Invalidate(ctx context.Context, userID uuid.UUID) {
	t.cache.Delete(ctx, cacheKey(userID))
}

// ForDisplay returns the stored record, recomputing it when missing or when
// its overall percentage cannot be decoded. Other corrupt fields read as
// empty.
func (t *Tracker) ForDisplay(ctx context.Context, userID uuid.UUID) (Record, error) {
	var cached Record
	if t.cache.Get(ctx, cacheKey(userID), &cached) {
		cached.normalize()
		return cached, nil
	}

	raw, err := t.store.GetUserMeta(ctx, userID, MetaProfileCompleteness)
	if err != nil {
		return emptyRecord(t.now().UTC()), fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
	}

	if rec, ok := decodeTolerant(raw); ok {
		t.cache.Set(ctx, cacheKey(userID), rec, cacheTTL)
		return rec, nil
	}

	return t.Calculate(ctx, userID)
}

// decodeTolerant decodes each record field independently. ok is false when
// the document is absent or lacks a usable overall percentage.
func decodeTolerant(raw []byte) (Record, bool) {
	var rec Record
	if len(raw) == 0 {
		return rec, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rec, false
	}

	pct, found := fields["overall_percentage"]
	if !found || json.Unmarshal(pct, &rec.OverallPercentage) != nil {
		return rec, false
	}

	decodeField(fields, "accuracy_level", &rec.AccuracyLevel)
	decodeField(fields, "completed_sections", &rec.CompletedSections)
	decodeField(fields, "missing_sections", &rec.MissingSections)
	decodeField(fields, "section_details", &rec.SectionDetails)
	decodeField(fields, "recommendations", &rec.Recommendations)
	decodeField(fields, "last_updated", &rec.LastUpdated)

	rec.normalize()

	return rec, true
}

func decodeField[T any](fields map[string]json.RawMessage, name string, dest *T) {
	raw, ok := fields[name]
	if !ok {
		return
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn("Ignoring corrupt completeness field", "field", name, "error", err)
		return
	}
	*dest = v
}
