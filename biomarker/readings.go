/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MetaStore is per-user key/value storage holding JSON documents.
// GetUserMeta returns nil without error when the key is absent.
type MetaStore interface {
	GetUserMeta(ctx context.Context, userID uuid.UUID, key string) ([]byte, error)
	SetUserMeta(ctx context.Context, userID uuid.UUID, key string, value []byte) error
}

// SaveResult counts what a batch save did.
type SaveResult struct {
	Saved   int      `json:"saved"`
	Skipped int      `json:"skipped"`
	Keys    []string `json:"keys"`
}

func getJSON(ctx context.Context, store MetaStore, userID uuid.UUID, key string, dest any) (bool, error) {
	raw, err := store.GetUserMeta(ctx, userID, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, store MetaStore, userID uuid.UUID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.SetUserMeta(ctx, userID, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// LoadReadings returns the latest reading per biomarker key.
func LoadReadings(ctx context.Context, store MetaStore, userID uuid.UUID) (map[string]Reading, error) {
	readings := map[string]Reading{}
	if _, err := getJSON(ctx, store, userID, MetaBiomarkerData, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// LoadHistory returns every stored reading for key, oldest first. An empty
// key returns the full history.
func LoadHistory(ctx context.Context, store MetaStore, userID uuid.UUID, key string) ([]Reading, error) {
	var history []Reading
	if _, err := getJSON(ctx, store, userID, MetaBiomarkerHistory, &history); err != nil {
		return nil, err
	}

	out := make([]Reading, 0, len(history))
	for _, r := range history {
		if key == "" || r.Key == key {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MeasuredAt.Before(out[j].MeasuredAt)
	})

	return out, nil
}

// NormalizeReading canonicalizes the key, fills the unit and date, and
// rejects non-finite values.
func NormalizeReading(r Reading) (Reading, error) {
	key, ok := CanonicalKey(r.Key)
	if !ok {
		return r, fmt.Errorf("%w: %q", ErrUnknownBiomarker, r.Key)
	}
	r.Key = key

	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return r, fmt.Errorf("%w: value for %s is not finite", ErrInvalidReading, key)
	}
	if r.Source == "" {
		r.Source = SourceManual
	}
	if !r.Source.Valid() {
		return r, fmt.Errorf("%w: source %q", ErrInvalidReading, r.Source)
	}
	if r.Unit == "" {
		if def, found := Lookup(key); found {
			r.Unit = def.Unit
		}
	}
	if r.MeasuredAt.IsZero() {
		r.MeasuredAt = time.Now().UTC()
	}
	r.MeasuredAt = r.MeasuredAt.UTC().Truncate(time.Second)

	return r, nil
}

// SaveReadings appends every reading to the history. The newest reading
// per key becomes the latest value when no value exists yet, or when
// overwrite is set and it is not older than the stored value.
func SaveReadings(ctx context.Context, store MetaStore, userID uuid.UUID, readings []Reading, overwrite bool) (SaveResult, error) {
	result := SaveResult{Keys: []string{}}
	if len(readings) == 0 {
		return result, nil
	}

	normalized := make([]Reading, 0, len(readings))
	for _, r := range readings {
		n, err := NormalizeReading(r)
		if err != nil {
			return result, err
		}
		normalized = append(normalized, n)
	}

	current, err := LoadReadings(ctx, store, userID)
	if err != nil {
		return result, err
	}

	var history []Reading
	if _, err := getJSON(ctx, store, userID, MetaBiomarkerHistory, &history); err != nil {
		return result, err
	}

	// Newest reading per key in this batch; later rows win ties.
	newest := map[string]int{}
	order := []string{}
	for i, r := range normalized {
		history = append(history, r)

		j, seen := newest[r.Key]
		if !seen {
			order = append(order, r.Key)
			newest[r.Key] = i
			continue
		}
		result.Skipped++
		if !r.MeasuredAt.Before(normalized[j].MeasuredAt) {
			newest[r.Key] = i
		}
	}

	for _, key := range order {
		r := normalized[newest[key]]

		if stored, exists := current[key]; exists && (!overwrite || r.MeasuredAt.Before(stored.MeasuredAt)) {
			result.Skipped++
			continue
		}

		current[key] = r
		result.Saved++
		result.Keys = append(result.Keys, key)
	}

	if err := setJSON(ctx, store, userID, MetaBiomarkerHistory, history); err != nil {
		return result, err
	}
	if result.Saved > 0 {
		if err := setJSON(ctx, store, userID, MetaBiomarkerData, current); err != nil {
			return result, err
		}
	}

	logger.Debug("Saved biomarker readings", "user_id", userID, "saved", result.Saved, "skipped", result.Skipped)

	return result, nil
}

// SaveReading stores one reading. It returns ErrReadingExists when a value
// is already present and overwrite is false, and ErrReadingOlder when the
// stored value is newer. The history is still appended.
func SaveReading(ctx context.Context, store MetaStore, userID uuid.UUID, r Reading, overwrite bool) (Reading, error) {
	normalized, err := NormalizeReading(r)
	if err != nil {
		return r, err
	}

	result, err := SaveReadings(ctx, store, userID, []Reading{normalized}, overwrite)
	if err != nil {
		return normalized, err
	}
	if result.Saved == 0 {
		if overwrite {
			return normalized, ErrReadingOlder
		}
		return normalized, ErrReadingExists
	}

	return normalized, nil
}
