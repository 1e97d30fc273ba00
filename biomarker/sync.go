/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HeightWeight is the profile form field holding imperial height and weight.
// Values may arrive as JSON numbers or numeric strings.
type HeightWeight struct {
	Feet   FlexFloat `json:"ft"`
	Inches FlexFloat `json:"in"`
	Pounds FlexFloat `json:"lbs"`
}

// FlexFloat decodes a JSON number, a numeric string, or an empty value.
type FlexFloat struct {
	Value float64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FlexFloat{}
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = FlexFloat{}
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = FlexFloat{}
		return nil
	}

	*f = FlexFloat{Value: v, Set: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// TotalInches returns the height in inches, if any part is set.
func (hw HeightWeight) TotalInches() (float64, bool) {
	if !hw.Feet.Set && !hw.Inches.Set {
		return 0, false
	}
	total := hw.Feet.Value*12 + hw.Inches.Value
	return total, total > 0
}

// BMI computes the imperial body mass index, rounded to one decimal.
func BMI(pounds, inches float64) (float64, bool) {
	if pounds <= 0 || inches <= 0 {
		return 0, false
	}
	return roundTo(703*pounds/(inches*inches), 1), true
}

// Demographics are the profile values the calculators depend on.
type Demographics struct {
	DateOfBirth *time.Time
	Gender      Gender
}

// Age returns the age at now, if a birth date is known.
func (d Demographics) Age(now time.Time) (int, bool) {
	if d.DateOfBirth == nil {
		return 0, false
	}
	return AgeAt(*d.DateOfBirth, now), true
}

// LoadDemographics reads date of birth and gender from profile metadata.
// Unparseable values are treated as missing.
func LoadDemographics(ctx context.Context, store MetaStore, userID uuid.UUID) (Demographics, error) {
	var demo Demographics

	dob, err := metaString(ctx, store, userID, MetaDateOfBirth)
	if err != nil {
		return demo, err
	}
	if parsed, err := time.Parse(DateLayout, dob); err == nil {
		demo.DateOfBirth = &parsed
	}

	gender, err := metaString(ctx, store, userID, MetaGender)
	if err != nil {
		return demo, err
	}
	if g, ok := ParseGender(gender); ok {
		demo.Gender = g
	}

	return demo, nil
}

// metaString reads a JSON string value. Values of any other shape read as "".
func metaString(ctx context.Context, store MetaStore, userID uuid.UUID, key string) (string, error) {
	raw, err := store.GetUserMeta(ctx, userID, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", nil
	}

	return strings.TrimSpace(s), nil
}

// SyncResult describes derived readings written by AutoSync.
type SyncResult struct {
	Synced   []string           `json:"synced"`
	Readings map[string]Reading `json:"readings"`
}

// AutoSync derives weight, height, BMI and age readings from raw profile
// fields and stores them as the latest values.
func AutoSync(ctx context.Context, store MetaStore, userID uuid.UUID, now time.Time) (SyncResult, error) {
	result := SyncResult{Synced: []string{}, Readings: map[string]Reading{}}
	measured := now.UTC().Truncate(time.Second)

	var hw HeightWeight
	if _, err := getJSON(ctx, store, userID, MetaHeightWeight, &hw); err != nil {
		return result, err
	}

	demo, err := LoadDemographics(ctx, store, userID)
	if err != nil {
		return result, err
	}

	var derived []Reading
	add := func(key string, value float64) {
		derived = append(derived, Reading{
			Key:        key,
			Value:      value,
			MeasuredAt: measured,
			Source:     SourceAutoSync,
		})
	}

	if hw.Pounds.Set && hw.Pounds.Value > 0 {
		add(KeyWeight, hw.Pounds.Value)
	}

	inches, hasHeight := hw.TotalInches()
	if hasHeight {
		add(KeyHeight, inches)
	}

	if bmi, ok := BMI(hw.Pounds.Value, inches); ok && hasHeight {
		add(KeyBMI, bmi)
		if err := setJSON(ctx, store, userID, MetaCalculatedBMI, bmi); err != nil {
			return result, err
		}
	}

	if age, ok := demo.Age(now); ok && age >= 0 {
		add(KeyAge, float64(age))
		if err := setJSON(ctx, store, userID, MetaCalculatedAge, age); err != nil {
			return result, err
		}
	}

	if len(derived) == 0 {
		return result, ErrNoProfileData
	}

	if _, err := SaveReadings(ctx, store, userID, derived, true); err != nil {
		return result, fmt.Errorf("failed to store synced readings: %w", err)
	}

	for _, r := range derived {
		r.Unit = definitionsByKey[r.Key].Unit
		result.Synced = append(result.Synced, r.Key)
		result.Readings[r.Key] = r
	}

	logger.Info("Auto-sync completed", "user_id", userID, "synced", strings.Join(result.Synced, ","))

	return result, nil
}
