// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	t.Parallel()

	r, err := Default()
	require.NoError(t, err)

	weights := map[string]int{}
	for _, s := range r.Completeness.Sections {
		weights[s.Key] = s.Weight
	}
	assert.Equal(t, map[string]int{
		"basic_demographics":    25,
		"health_goals":          20,
		"assessments_completed": 30,
		"symptoms_data":         15,
		"biomarkers_data":       10,
	}, weights)
	assert.Equal(t, 80, r.Completeness.CompletedThreshold)

	assert.Contains(t, r.CorrelatedBiomarkers("Fatigue"), "vitamin_d_25_oh")
	assert.Contains(t, r.CorrelatedBiomarkers("low libido"), "testosterone_total")
	assert.Empty(t, r.CorrelatedBiomarkers("itchy elbows"))

	assert.InDelta(t, 1.0, r.SymptomSeverity("itchy elbows"), 0)
	assert.Equal(t, 365, r.RetestDays("magnesium"))
	assert.Equal(t, 90, r.RetestDays("hba1c"))
	assert.InDelta(t, 2.0, r.BiomarkerSeverity("magnesium"), 0)

	fu, ok := r.FollowUp("tsh")
	require.True(t, ok)
	assert.True(t, fu.Abnormal(0.1))
	assert.True(t, fu.Abnormal(6))
	assert.False(t, fu.Abnormal(2))

	assert.NotEmpty(t, r.SymptomNames())
}

func TestWeightsMustSumTo100(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`
completeness:
  sections:
    - key: a
      weight: 60
      fields: [{key: x, kind: required}]
    - key: b
      weight: 30
      fields: [{key: y, kind: optional}]
`))
	require.ErrorIs(t, err, ErrWeightsSum)
}

func TestParseRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		yaml string
		err  error
	}{
		"no sections": {`version: 1`, ErrNoSections},
		"bad kind": {`
completeness:
  sections:
    - {key: a, weight: 100, fields: [{key: x, kind: sometimes}]}
`, ErrInvalidRules},
		"duplicate section": {`
completeness:
  sections:
    - {key: a, weight: 50, fields: [{key: x, kind: required}]}
    - {key: a, weight: 50, fields: [{key: y, kind: required}]}
`, ErrInvalidRules},
		"unknown biomarker": {`
completeness:
  sections:
    - {key: a, weight: 100, fields: [{key: x, kind: required}]}
symptoms:
  correlations:
    fatigue: [unobtainium]
`, ErrUnknownBiomarker},
		"follow-up without threshold": {`
completeness:
  sections:
    - {key: a, weight: 100, fields: [{key: x, kind: required}]}
biomarkers:
  follow_ups:
    tsh: {reason: nothing}
`, ErrInvalidRules},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, defaultRules, 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, r.Completeness.Sections, 5)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	r, err = Load("")
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestNormalizeSymptom(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "low_libido", NormalizeSymptom("Low Libido"))
	assert.Equal(t, "brain_fog", NormalizeSymptom(" brain-fog "))
	assert.Equal(t, "shortness_of_breath", NormalizeSymptom("Shortness of Breath"))
}
