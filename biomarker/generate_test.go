// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package biomarker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/humaidq/ennu/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testRanges() StaticProvider {
	return StaticProvider{
		KeyVitaminD: {BiomarkerKey: KeyVitaminD, OptimalMin: f(30), OptimalMax: f(80), Adjustment: AdjustVitaminD},
		KeyLDL:      {BiomarkerKey: KeyLDL, OptimalMin: f(50), OptimalMax: f(100), Adjustment: AdjustLipidLower},
	}
}

func newTestService(store MetaStore, ranges RangeProvider) *TargetService {
	s := NewTargetService(store, ranges)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestGenerateAllTargetsRequiresDemographics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()
	store.put(t, userID, MetaBiomarkerData, map[string]Reading{KeyLDL: {Key: KeyLDL, Value: 150}})
	store.put(t, userID, MetaGender, "male")

	targets, err := newTestService(store, testRanges()).GenerateAllTargetsForUser(ctx, userID)
	require.ErrorIs(t, err, ErrDemographicsMissing)
	assert.NotNil(t, targets)
	assert.Empty(t, targets)
}

func TestGenerateAllTargetsSkipsUnknownRanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()
	store.put(t, userID, MetaDateOfBirth, "1980-01-01")
	store.put(t, userID, MetaGender, "Male")
	store.put(t, userID, MetaBiomarkerData, map[string]Reading{
		KeyLDL:      {Key: KeyLDL, Value: 150},
		KeyVitaminD: {Key: KeyVitaminD, Value: 15},
		KeyFerritin: {Key: KeyFerritin, Value: 80},
	})

	targets, err := newTestService(store, testRanges()).GenerateAllTargetsForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, targets, 2)

	ldl := targets[KeyLDL]
	assert.Equal(t, MethodLowerToOptimal, ldl.CalculationMethod)
	require.NotNil(t, ldl.TargetValue)
	assert.InDelta(t, 78.75, *ldl.TargetValue, 1e-9)

	vitD := targets[KeyVitaminD]
	require.NotNil(t, vitD.TargetValue)
	assert.InDelta(t, 46.75, *vitD.TargetValue, 1e-9)
}

type failingProvider struct{}

func (failingProvider) GetReferenceRange(context.Context, string) (*ReferenceRange, error) {
	return nil, errors.New("db down")
}

func TestGenerateAllTargetsProviderFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()
	store.put(t, userID, MetaDateOfBirth, "1980-01-01")
	store.put(t, userID, MetaGender, "female")
	store.put(t, userID, MetaBiomarkerData, map[string]Reading{KeyLDL: {Key: KeyLDL, Value: 150}})

	targets, err := newTestService(store, failingProvider{}).GenerateAllTargetsForUser(ctx, userID)
	require.Error(t, err)
	assert.Empty(t, targets)
}

func TestCalculateForUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()
	store.put(t, userID, MetaDateOfBirth, "1980-01-01")
	store.put(t, userID, MetaGender, "female")

	rec, validation, err := newTestService(store, testRanges()).CalculateForUser(ctx, userID, "Vitamin D", 15)
	require.NoError(t, err)
	assert.Equal(t, KeyVitaminD, rec.BiomarkerKey)
	assert.True(t, validation.IsOptimal)

	rec, validation, err = newTestService(store, testRanges()).CalculateForUser(ctx, userID, KeyTSH, 2)
	require.NoError(t, err)
	assert.Equal(t, MethodInvalidInput, rec.CalculationMethod)
	assert.NotEmpty(t, validation.Warnings)

	_, _, err = newTestService(store, testRanges()).CalculateForUser(ctx, userID, "unobtainium", 2)
	require.ErrorIs(t, err, ErrUnknownBiomarker)
}

func TestCachedProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	counting := &countingProvider{next: testRanges()}
	p := NewCachedProvider(counting, cache.NewMemory(16, time.Minute), 0)

	for range 3 {
		rr, err := p.GetReferenceRange(ctx, KeyLDL)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, *rr.OptimalMin, 0)
	}
	assert.Equal(t, 1, counting.calls)

	_, err := p.GetReferenceRange(ctx, KeyTSH)
	require.ErrorIs(t, err, ErrReferenceRangeNotFound)

	p.Invalidate(ctx, KeyLDL)
	_, err = p.GetReferenceRange(ctx, KeyLDL)
	require.NoError(t, err)
	assert.Equal(t, 3, counting.calls)
}

type countingProvider struct {
	next  RangeProvider
	calls int
}

func (c *countingProvider) GetReferenceRange(ctx context.Context, key string) (*ReferenceRange, error) {
	c.calls++
	return c.next.GetReferenceRange(ctx, key)
}

func TestAutoSync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()
	store.put(t, userID, MetaDateOfBirth, "1990-06-16")
	store.data[userID.String()+"/"+MetaHeightWeight] = []byte(`{"ft":"5","in":10,"lbs":"180"}`)

	result, err := AutoSync(ctx, store, userID, fixedNow)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeyWeight, KeyHeight, KeyBMI, KeyAge}, result.Synced)
	assert.InDelta(t, 70.0, result.Readings[KeyHeight].Value, 0)
	assert.InDelta(t, 25.8, result.Readings[KeyBMI].Value, 1e-9)
	assert.InDelta(t, 34.0, result.Readings[KeyAge].Value, 0)

	var bmi float64
	require.NoError(t, json.Unmarshal(store.data[userID.String()+"/"+MetaCalculatedBMI], &bmi))
	assert.InDelta(t, 25.8, bmi, 1e-9)

	readings, err := LoadReadings(ctx, store, userID)
	require.NoError(t, err)
	assert.Equal(t, SourceAutoSync, readings[KeyWeight].Source)
}

func TestAutoSyncWithoutProfile(t *testing.T) {
	t.Parallel()

	_, err := AutoSync(context.Background(), newTestStore(), uuid.New(), fixedNow)
	require.ErrorIs(t, err, ErrNoProfileData)
}

func TestLoadDemographicsToleratesBadValues(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	userID := uuid.New()
	store.data[userID.String()+"/"+MetaDateOfBirth] = []byte(`12345`)
	store.put(t, userID, MetaGender, "other")

	demo, err := LoadDemographics(context.Background(), store, userID)
	require.NoError(t, err)
	assert.Nil(t, demo.DateOfBirth)
	assert.Empty(t, demo.Gender)
}

func TestAgeAt(t *testing.T) {
	t.Parallel()

	dob := time.Date(1990, 6, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 34, AgeAt(dob, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 35, AgeAt(dob, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)))
}

func TestGenerateAllTargetsSkipsDerivedReadings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	userID := uuid.New()
	store.put(t, userID, MetaDateOfBirth, "1980-01-01")
	store.put(t, userID, MetaGender, "female")
	store.put(t, userID, MetaBiomarkerData, map[string]Reading{
		KeyBMI: {Key: KeyBMI, Value: 31},
		KeyAge: {Key: KeyAge, Value: 45},
		KeyLDL: {Key: KeyLDL, Value: 150},
	})

	ranges := testRanges()
	ranges[KeyBMI] = &ReferenceRange{BiomarkerKey: KeyBMI, OptimalMin: f(18.5), OptimalMax: f(25)}
	ranges[KeyAge] = &ReferenceRange{BiomarkerKey: KeyAge, OptimalMin: f(18), OptimalMax: f(65)}

	targets, err := newTestService(store, ranges).GenerateAllTargetsForUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, targets, 1)
	assert.Contains(t, targets, KeyLDL)
}
