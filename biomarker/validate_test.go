// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package biomarker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTargetValueCriticalBand(t *testing.T) {
	t.Parallel()

	rr := &ReferenceRange{
		OptimalMin:  f(30),
		OptimalMax:  f(80),
		NormalMin:   f(20),
		NormalMax:   f(100),
		CriticalMin: f(10),
		CriticalMax: f(150),
	}

	ok := ValidateTargetValue(50, rr)
	assert.True(t, ok.IsSafe)
	assert.True(t, ok.IsOptimal)
	assert.Empty(t, ok.Warnings)
	require.NotNil(t, ok.SafeMin)
	require.NotNil(t, ok.SafeMax)
	assert.InDelta(t, 8.0, *ok.SafeMin, 1e-9)
	assert.InDelta(t, 180.0, *ok.SafeMax, 1e-9)

	low := ValidateTargetValue(7, rr)
	assert.False(t, low.IsSafe)
	assert.False(t, low.IsOptimal)
	assert.Len(t, low.Warnings, 2)

	high := ValidateTargetValue(170, rr)
	assert.True(t, high.IsSafe)
	assert.False(t, high.IsOptimal)
}

func TestValidateTargetValueFallsBackToNormal(t *testing.T) {
	t.Parallel()

	rr := &ReferenceRange{NormalMin: f(20), NormalMax: f(100)}
	v := ValidateTargetValue(125, rr)
	assert.False(t, v.IsSafe)
	require.NotNil(t, v.SafeMax)
	assert.InDelta(t, 120.0, *v.SafeMax, 1e-9)
	assert.False(t, v.IsOptimal)
}

func TestValidateTargetValueDoesNotMutate(t *testing.T) {
	t.Parallel()

	rr := &ReferenceRange{CriticalMin: f(10), CriticalMax: f(20)}
	_ = ValidateTargetValue(15, rr)
	assert.InDelta(t, 10.0, *rr.CriticalMin, 0)
	assert.InDelta(t, 20.0, *rr.CriticalMax, 0)
}

func TestValidateTargetValueWithoutRange(t *testing.T) {
	t.Parallel()

	v := ValidateTargetValue(15, nil)
	assert.False(t, v.IsSafe)
	assert.NotEmpty(t, v.Warnings)
}
