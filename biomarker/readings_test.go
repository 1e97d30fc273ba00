// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package biomarker

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Vitamin D":          KeyVitaminD,
		"vitamin_d_25_oh":    KeyVitaminD,
		"25-OH Vitamin D":    KeyVitaminD,
		"LDL-C":              KeyLDL,
		"  HDL ":             KeyHDL,
		"Hemoglobin A1c":     KeyHbA1c,
		"hs-CRP":             KeyCRP,
		"Total Testosterone": KeyTestosterone,
	}
	for raw, want := range tests {
		got, ok := CanonicalKey(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := CanonicalKey("unobtainium")
	assert.False(t, ok)
	_, ok = CanonicalKey("   ")
	assert.False(t, ok)
}

func TestSaveReadingOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()

	first, err := SaveReading(ctx, store, userID, Reading{Key: "LDL", Value: 130}, false)
	require.NoError(t, err)
	assert.Equal(t, KeyLDL, first.Key)
	assert.Equal(t, "mg/dL", first.Unit)
	assert.Equal(t, SourceManual, first.Source)

	_, err = SaveReading(ctx, store, userID, Reading{Key: KeyLDL, Value: 120}, false)
	require.ErrorIs(t, err, ErrReadingExists)

	readings, err := LoadReadings(ctx, store, userID)
	require.NoError(t, err)
	assert.InDelta(t, 130.0, readings[KeyLDL].Value, 0)

	_, err = SaveReading(ctx, store, userID, Reading{Key: KeyLDL, Value: 110}, true)
	require.NoError(t, err)

	readings, err = LoadReadings(ctx, store, userID)
	require.NoError(t, err)
	assert.InDelta(t, 110.0, readings[KeyLDL].Value, 0)

	history, err := LoadHistory(ctx, store, userID, KeyLDL)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestSaveReadingRejectsInvalid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()

	_, err := SaveReading(ctx, store, userID, Reading{Key: "nope", Value: 1}, false)
	require.ErrorIs(t, err, ErrUnknownBiomarker)

	_, err = SaveReading(ctx, store, userID, Reading{Key: KeyLDL, Value: math.NaN()}, false)
	require.ErrorIs(t, err, ErrInvalidReading)

	_, err = SaveReading(ctx, store, userID, Reading{Key: KeyLDL, Value: 1, Source: "fax"}, false)
	require.ErrorIs(t, err, ErrInvalidReading)
}

func TestSaveReadingStoreFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	store.failSet = true

	_, err := SaveReading(ctx, store, uuid.New(), Reading{Key: KeyLDL, Value: 100}, true)
	require.ErrorIs(t, err, errStoreDown)
}

func TestLoadHistorySorted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()

	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	_, err := SaveReadings(ctx, store, userID, []Reading{
		{Key: KeyHDL, Value: 50, MeasuredAt: day(10)},
		{Key: KeyHDL, Value: 45, MeasuredAt: day(2)},
		{Key: KeyLDL, Value: 90, MeasuredAt: day(5)},
	}, true)
	require.NoError(t, err)

	history, err := LoadHistory(ctx, store, userID, KeyHDL)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].MeasuredAt.Before(history[1].MeasuredAt))

	all, err := LoadHistory(ctx, store, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"biomarker_name,value,unit,date",
		"Vitamin D,32.5,ng/mL,2025-03-01",
		"LDL,abc,mg/dL,2025-03-01",
		"HDL,55,mg/dL,03/01/2025",
		"unobtainium,1,x,2025-03-01",
		"",
		"Glucose,88",
	}, "\n")

	today := time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)
	parsed, err := ParseCSV(strings.NewReader(input), today)
	require.NoError(t, err)

	require.Len(t, parsed.Readings, 3)
	assert.Equal(t, KeyVitaminD, parsed.Readings[0].Key)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), parsed.Readings[0].MeasuredAt)
	assert.Equal(t, SourceCSVImport, parsed.Readings[0].Source)

	assert.Equal(t, KeyHDL, parsed.Readings[1].Key)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), parsed.Readings[1].MeasuredAt)

	assert.Equal(t, KeyGlucose, parsed.Readings[2].Key)
	assert.Len(t, parsed.Warnings, 4)
}

func TestImportCSV(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()

	_, err := SaveReading(ctx, store, userID, Reading{Key: KeyHDL, Value: 40}, false)
	require.NoError(t, err)

	input := "name,value,unit,date\nHDL,60,mg/dL,2025-01-01\nLDL,99,mg/dL,2025-01-01\n"
	summary, err := ImportCSV(ctx, store, userID, strings.NewReader(input), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{KeyLDL}, summary.Keys)

	_, err = ImportCSV(ctx, store, userID, strings.NewReader("header only\n"), false)
	require.ErrorIs(t, err, ErrEmptyCSV)
}

func TestFlagLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()
	admin := uuid.New()

	flag, err := FlagBiomarker(ctx, store, userID, "LDL", "very high", admin)
	require.NoError(t, err)
	assert.Equal(t, FlagActive, flag.Status)
	assert.Equal(t, KeyLDL, flag.BiomarkerKey)

	active, err := ListFlags(ctx, store, userID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)

	removed, err := UnflagBiomarker(ctx, store, userID, flag.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, FlagRemoved, removed.Status)
	require.NotNil(t, removed.RemovedAt)

	active, err = ListFlags(ctx, store, userID, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := ListFlags(ctx, store, userID, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = UnflagBiomarker(ctx, store, userID, "missing", admin)
	require.ErrorIs(t, err, ErrFlagNotFound)

	_, err = FlagBiomarker(ctx, store, userID, "unobtainium", "", admin)
	require.ErrorIs(t, err, ErrUnknownBiomarker)
}

func TestImportCSVKeepsNewestReading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rows      string
		overwrite bool
	}{
		{"oldest first", "vitamin_d,20,ng/mL,2022-01-01\nvitamin_d,50,ng/mL,2026-09-01\n", false},
		{"newest first with overwrite", "vitamin_d,50,ng/mL,2026-09-01\nvitamin_d,20,ng/mL,2023-01-01\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := newTestStore()
			userID := uuid.New()

			summary, err := ImportCSV(ctx, store, userID, strings.NewReader("name,value,unit,date\n"+tt.rows), tt.overwrite)
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Imported)
			assert.Equal(t, 1, summary.Skipped)

			readings, err := LoadReadings(ctx, store, userID)
			require.NoError(t, err)
			latest := readings[KeyVitaminD]
			assert.InDelta(t, 50.0, latest.Value, 0)
			assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), latest.MeasuredAt)

			history, err := LoadHistory(ctx, store, userID, KeyVitaminD)
			require.NoError(t, err)
			assert.Len(t, history, 2)
		})
	}
}

func TestOverwriteDoesNotReplaceNewerReading(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()

	day := func(y int) time.Time { return time.Date(y, 3, 1, 0, 0, 0, 0, time.UTC) }

	_, err := SaveReading(ctx, store, userID, Reading{Key: KeyLDL, Value: 90, MeasuredAt: day(2025)}, false)
	require.NoError(t, err)

	_, err = SaveReading(ctx, store, userID, Reading{Key: KeyLDL, Value: 170, MeasuredAt: day(2023)}, true)
	require.ErrorIs(t, err, ErrReadingOlder)

	_, err = SaveReading(ctx, store, userID, Reading{Key: KeyLDL, Value: 80, MeasuredAt: day(2026)}, false)
	require.ErrorIs(t, err, ErrReadingExists)

	readings, err := LoadReadings(ctx, store, userID)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, readings[KeyLDL].Value, 0)

	_, err = SaveReading(ctx, store, userID, Reading{Key: KeyLDL, Value: 80, MeasuredAt: day(2026)}, true)
	require.NoError(t, err)

	readings, err = LoadReadings(ctx, store, userID)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, readings[KeyLDL].Value, 0)

	history, err := LoadHistory(ctx, store, userID, KeyLDL)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}
