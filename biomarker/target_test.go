// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package biomarker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVitaminDExample(t *testing.T) {
	t.Parallel()

	rr := &ReferenceRange{
		BiomarkerKey: KeyVitaminD,
		OptimalMin:   f(30),
		OptimalMax:   f(80),
		Adjustment:   AdjustVitaminD,
	}

	rec := CalculatePersonalizedTarget(KeyVitaminD, 15, rr, 45, GenderMale)

	require.NotNil(t, rec.TargetValue)
	assert.Equal(t, MethodRaiseToOptimal, rec.CalculationMethod)
	assert.InDelta(t, 46.75, *rec.TargetValue, 1e-9)
	assert.LessOrEqual(t, *rec.TargetValue, 88.0)
	assert.InDelta(t, 0.45, rec.ConfidenceScore, 1e-9)
	assert.Equal(t, AdjustVitaminD, rec.Adjustment)
	assert.Equal(t, &OptimalRange{Min: 30, Max: 80}, rec.OptimalRange)
	assert.InDelta(t, 15.0, rec.CurrentValue, 0)
}

func TestVitaminDCap(t *testing.T) {
	t.Parallel()

	target, note, applied := applyAdjustment(AdjustVitaminD, 85, 30, 80)
	assert.True(t, applied)
	assert.NotEmpty(t, note)
	assert.InDelta(t, 88.0, target, 1e-9)
}

func TestTargetByPositionMidpointMaintains(t *testing.T) {
	t.Parallel()

	ranges := [][2]float64{{30, 80}, {0, 1}, {4.5, 5.6}, {70, 99}, {-10, 10}, {100, 1000}}
	for _, r := range ranges {
		mid := r[0] + (r[1]-r[0])/2
		target, method, position := CalculateTargetByPosition(mid, r[0], r[1])
		assert.Equal(t, MethodMaintainCurrentOptimal, method, "range %v", r)
		assert.InDelta(t, mid, target, 0, "range %v", r)
		assert.InDelta(t, 0.5, position, 1e-9)
	}
}

func TestTargetByPositionPolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current float64
		target  float64
		method  CalculationMethod
	}{
		{"below", 10, 42.5, MethodRaiseToOptimal},
		{"above", 100, 67.5, MethodLowerToOptimal},
		{"lower third", 35, 55, MethodCenterInOptimal},
		{"upper third", 76, 55, MethodCenterInOptimal},
		{"middle", 50, 50, MethodMaintainCurrentOptimal},
		{"at min", 30, 55, MethodCenterInOptimal},
		{"at max", 80, 55, MethodCenterInOptimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			target, method, _ := CalculateTargetByPosition(tt.current, 30, 80)
			assert.Equal(t, tt.method, method)
			assert.InDelta(t, tt.target, target, 1e-9)
		})
	}
}

func TestBelowRangeTargetBetweenCurrentAndQuartile(t *testing.T) {
	t.Parallel()

	kinds := []AdjustmentKind{AdjustNone, AdjustVitaminD, AdjustCortisol, AdjustLipidLower, AdjustHDL, AdjustTestosterone}
	for _, kind := range kinds {
		for _, current := range []float64{0, 5, 12.5, 20, 29.9} {
			rr := &ReferenceRange{OptimalMin: f(30), OptimalMax: f(80), Adjustment: kind}
			rec := CalculatePersonalizedTarget("x", current, rr, 50, GenderFemale)

			require.NotNil(t, rec.TargetValue)
			quartile := 30 + 0.25*50
			assert.Greater(t, *rec.TargetValue, current, "kind %s current %v", kind, current)
			assert.LessOrEqual(t, *rec.TargetValue, quartile*1.1+1e-9, "kind %s current %v", kind, current)
		}
	}
}

func TestAdjustmentSkippedWhenItCrossesCurrent(t *testing.T) {
	t.Parallel()

	rr := &ReferenceRange{OptimalMin: f(100), OptimalMax: f(110), Adjustment: AdjustLipidLower}
	rec := CalculatePersonalizedTarget(KeyLDL, 95, rr, 40, GenderMale)

	require.NotNil(t, rec.TargetValue)
	assert.InDelta(t, 102.5, *rec.TargetValue, 1e-9)
	assert.Equal(t, AdjustNone, rec.Adjustment)
	assert.Contains(t, rec.Reasoning, "skipped")

	hdl := &ReferenceRange{OptimalMin: f(50), OptimalMax: f(52), Adjustment: AdjustHDL}
	rec = CalculatePersonalizedTarget(KeyHDL, 53, hdl, 40, GenderMale)
	require.NotNil(t, rec.TargetValue)
	assert.InDelta(t, 51.5, *rec.TargetValue, 1e-9)
	assert.Equal(t, AdjustNone, rec.Adjustment)
}

func TestTestosteroneAdjustmentDependsOnAge(t *testing.T) {
	t.Parallel()

	rr := &ReferenceRange{OptimalMin: f(500), OptimalMax: f(900), Adjustment: AdjustTestosterone}

	young := CalculatePersonalizedTarget(KeyTestosterone, 300, rr, 35, GenderMale)
	require.NotNil(t, young.TargetValue)
	assert.InDelta(t, 600, *young.TargetValue, 1e-9)
	assert.Equal(t, AdjustNone, young.Adjustment)

	older := CalculatePersonalizedTarget(KeyTestosterone, 300, rr, 45, GenderMale)
	require.NotNil(t, older.TargetValue)
	assert.InDelta(t, 630, *older.TargetValue, 1e-9)
	assert.Equal(t, AdjustTestosterone, older.Adjustment)
	assert.InDelta(t, young.ConfidenceScore-0.05, older.ConfidenceScore, 1e-9)
}

func TestConfidenceAlwaysInBounds(t *testing.T) {
	t.Parallel()

	kinds := []AdjustmentKind{AdjustNone, AdjustVitaminD, AdjustCortisol, AdjustLipidLower, AdjustHDL, AdjustTestosterone}
	withTables := &ReferenceRange{
		OptimalMin:        f(10),
		OptimalMax:        f(20),
		AgeAdjustments:    map[AgeRange]Range{AgeSenior: {Min: f(12)}},
		GenderAdjustments: map[Gender]Range{GenderFemale: {Max: f(18)}},
	}

	for _, kind := range kinds {
		for _, tables := range []bool{true, false} {
			for current := -50.0; current <= 100; current += 2.5 {
				for _, age := range []int{10, 30, 55, 70} {
					rr := &ReferenceRange{OptimalMin: f(10), OptimalMax: f(20), Adjustment: kind}
					if tables {
						rr.AgeAdjustments = withTables.AgeAdjustments
						rr.GenderAdjustments = withTables.GenderAdjustments
					}
					rec := CalculatePersonalizedTarget("x", current, rr, age, GenderFemale)
					require.True(t, rec.Valid())
					assert.GreaterOrEqual(t, rec.ConfidenceScore, 0.1)
					assert.LessOrEqual(t, rec.ConfidenceScore, 1.0)
				}
			}
		}
	}
}

func TestConfidenceComponents(t *testing.T) {
	t.Parallel()

	tables := map[Gender]Range{GenderMale: {Min: f(30), Max: f(80)}}

	maintain := CalculatePersonalizedTarget("x", 55, &ReferenceRange{OptimalMin: f(30), OptimalMax: f(80), GenderAdjustments: tables}, 30, GenderMale)
	assert.InDelta(t, 0.9, maintain.ConfidenceScore, 1e-9)

	noTables := CalculatePersonalizedTarget("x", 55, &ReferenceRange{OptimalMin: f(30), OptimalMax: f(80)}, 30, GenderMale)
	assert.InDelta(t, 0.8, noTables.ConfidenceScore, 1e-9)

	outside := CalculatePersonalizedTarget("x", 100, &ReferenceRange{OptimalMin: f(30), OptimalMax: f(80), GenderAdjustments: tables}, 30, GenderMale)
	assert.InDelta(t, 0.6, outside.ConfidenceScore, 1e-9)
}

func TestInvalidInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current float64
		rr      *ReferenceRange
	}{
		{"nil range", 10, nil},
		{"nan", math.NaN(), &ReferenceRange{OptimalMin: f(1), OptimalMax: f(2)}},
		{"inf", math.Inf(1), &ReferenceRange{OptimalMin: f(1), OptimalMax: f(2)}},
		{"no bounds", 10, &ReferenceRange{}},
		{"missing max", 10, &ReferenceRange{OptimalMin: f(1)}},
		{"min equals max", 10, &ReferenceRange{OptimalMin: f(5), OptimalMax: f(5)}},
		{"min above max", 10, &ReferenceRange{OptimalMin: f(6), OptimalMax: f(5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := CalculatePersonalizedTarget("x", tt.current, tt.rr, 30, GenderMale)
			assert.Nil(t, rec.TargetValue)
			assert.Zero(t, rec.ConfidenceScore)
			assert.Equal(t, MethodInvalidInput, rec.CalculationMethod)
			assert.False(t, rec.Valid())
			assert.NotEmpty(t, rec.Reasoning)
		})
	}
}

func TestNormalBoundsFallback(t *testing.T) {
	t.Parallel()

	rr := &ReferenceRange{NormalMin: f(30), NormalMax: f(80), OptimalMax: f(60)}
	rec := CalculatePersonalizedTarget("x", 10, rr, 30, GenderMale)

	require.NotNil(t, rec.TargetValue)
	assert.Equal(t, &OptimalRange{Min: 30, Max: 60}, rec.OptimalRange)
	assert.InDelta(t, 37.5, *rec.TargetValue, 1e-9)
}

func TestGenderOverridesAge(t *testing.T) {
	t.Parallel()

	rr := &ReferenceRange{
		OptimalMin:        f(10),
		OptimalMax:        f(30),
		AgeAdjustments:    map[AgeRange]Range{AgeAdult: {Min: f(12), Max: f(22)}},
		GenderAdjustments: map[Gender]Range{GenderMale: {Min: f(14), Max: f(18)}},
	}

	lo, hi, ok := rr.ResolveOptimal(30, GenderMale)
	require.True(t, ok)
	assert.InDelta(t, 14.0, lo, 0)
	assert.InDelta(t, 18.0, hi, 0)

	lo, hi, ok = rr.ResolveOptimal(30, GenderFemale)
	require.True(t, ok)
	assert.InDelta(t, 12.0, lo, 0)
	assert.InDelta(t, 22.0, hi, 0)

	lo, hi, ok = rr.ResolveOptimal(70, GenderFemale)
	require.True(t, ok)
	assert.InDelta(t, 10.0, lo, 0)
	assert.InDelta(t, 30.0, hi, 0)
}

func TestAgeRangeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, AgePediatric, AgeRangeFor(17))
	assert.Equal(t, AgeAdult, AgeRangeFor(18))
	assert.Equal(t, AgeAdult, AgeRangeFor(49))
	assert.Equal(t, AgeMiddleAge, AgeRangeFor(50))
	assert.Equal(t, AgeMiddleAge, AgeRangeFor(64))
	assert.Equal(t, AgeSenior, AgeRangeFor(65))
}
