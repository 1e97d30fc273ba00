/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"strings"
	"time"
)

// Per-user metadata keys owned by the biomarker pipeline.
const (
	MetaBiomarkerData    = "ennu_biomarker_data"
	MetaBiomarkerHistory = "ennu_biomarker_history"
	MetaBiomarkerFlags   = "ennu_biomarker_flags"
	MetaDateOfBirth      = "ennu_global_date_of_birth"
	MetaGender           = "ennu_global_gender"
	MetaHeightWeight     = "ennu_global_height_weight"
	MetaCalculatedAge    = "ennu_calculated_age"
	MetaCalculatedBMI    = "ennu_calculated_bmi"
)

// DateLayout is the storage and CSV layout for measurement dates.
const DateLayout = "2006-01-02"

// Gender represents biological sex for medical reference ranges
type Gender string

// Gender values represent supported biological-sex categories.
const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderUnisex Gender = "Unisex" // For ranges that don't vary by gender
)

// ParseGender normalizes free-form gender values from profile forms.
func ParseGender(raw string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m":
		return GenderMale, true
	case "female", "f":
		return GenderFemale, true
	default:
		return "", false
	}
}

// AgeRange represents age-based categorization for reference ranges
type AgeRange string

// AgeRange values represent supported age groups for biomarker ranges.
const (
	AgeAll       AgeRange = "All"       // Base range, not age specific
	AgePediatric AgeRange = "Pediatric" // 0-17
	AgeAdult     AgeRange = "Adult"     // 18-49
	AgeMiddleAge AgeRange = "MiddleAge" // 50-64
	AgeSenior    AgeRange = "Senior"    // 65+
)

// AgeRangeFor returns the age bracket for an age in years.
func AgeRangeFor(age int) AgeRange {
	switch {
	case age <= 17:
		return AgePediatric
	case age <= 49:
		return AgeAdult
	case age <= 64:
		return AgeMiddleAge
	default:
		return AgeSenior
	}
}

// AgeAt calculates the age in years at a given date
func AgeAt(dob, at time.Time) int {
	years := at.Year() - dob.Year()
	// Adjust if birthday hasn't occurred yet this year
	if at.Month() < dob.Month() ||
		(at.Month() == dob.Month() && at.Day() < dob.Day()) {
		years--
	}

	return years
}

// Source records where a reading came from.
type Source string

// Source values.
const (
	SourceManual    Source = "manual"
	SourceCSVImport Source = "csv_import"
	SourceLabAPI    Source = "lab_api"
	SourceAutoSync  Source = "auto_sync"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceCSVImport, SourceLabAPI, SourceAutoSync:
		return true
	}
	return false
}

// Reading is a single biomarker measurement for a user.
type Reading struct {
	Key        string    `json:"key"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	MeasuredAt time.Time `json:"measured_at"`
	Source     Source    `json:"source"`
}

// Range is a partial min/max pair. Nil bounds are left unchanged when an
// adjustment is applied.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// AdjustmentKind selects a biomarker-specific target nudge.
type AdjustmentKind string

// AdjustmentKind values.
const (
	AdjustNone         AdjustmentKind = ""
	AdjustTestosterone AdjustmentKind = "testosterone"
	AdjustVitaminD     AdjustmentKind = "vitamin_d"
	AdjustCortisol     AdjustmentKind = "cortisol"
	AdjustLipidLower   AdjustmentKind = "lipid_lower"
	AdjustHDL          AdjustmentKind = "hdl"
)

// ReferenceRange holds optimal/normal/critical bounds for one biomarker plus
// optional demographic overrides.
type ReferenceRange struct {
	BiomarkerKey      string             `json:"biomarker_key"`
	Unit              string             `json:"unit,omitempty"`
	OptimalMin        *float64           `json:"optimal_min,omitempty"`
	OptimalMax        *float64           `json:"optimal_max,omitempty"`
	NormalMin         *float64           `json:"normal_min,omitempty"`
	NormalMax         *float64           `json:"normal_max,omitempty"`
	CriticalMin       *float64           `json:"critical_min,omitempty"`
	CriticalMax       *float64           `json:"critical_max,omitempty"`
	AgeAdjustments    map[AgeRange]Range `json:"age_adjustments,omitempty"`
	GenderAdjustments map[Gender]Range   `json:"gender_adjustments,omitempty"`
	Adjustment        AdjustmentKind     `json:"adjustment,omitempty"`
}

// hasDemographicTables reports whether any age or gender override exists.
func (r *ReferenceRange) hasDemographicTables() bool {
	return len(r.AgeAdjustments) > 0 || len(r.GenderAdjustments) > 0
}

// baseOptimal returns the optimal bounds, filling gaps from the normal range.
func (r *ReferenceRange) baseOptimal() (optMin, optMax *float64) {
	optMin = r.OptimalMin
	if optMin == nil {
		optMin = r.NormalMin
	}

	optMax = r.OptimalMax
	if optMax == nil {
		optMax = r.NormalMax
	}

	return optMin, optMax
}

// ResolveOptimal returns the optimal bounds for the given demographics. A
// gender override replaces an age override rather than composing with it.
func (r *ReferenceRange) ResolveOptimal(age int, gender Gender) (optMin, optMax float64, ok bool) {
	lo, hi := r.baseOptimal()

	if adj, found := r.AgeAdjustments[AgeRangeFor(age)]; found {
		lo, hi = overrideBounds(lo, hi, adj)
	}

	if adj, found := r.GenderAdjustments[gender]; found {
		lo, hi = overrideBounds(lo, hi, adj)
	}

	if lo == nil || hi == nil {
		return 0, 0, false
	}

	return *lo, *hi, true
}

func overrideBounds(lo, hi *float64, adj Range) (*float64, *float64) {
	if adj.Min != nil {
		lo = adj.Min
	}
	if adj.Max != nil {
		hi = adj.Max
	}
	return lo, hi
}

// OptimalRange is a resolved optimal interval.
type OptimalRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CalculationMethod names the policy that produced a target.
type CalculationMethod string

// CalculationMethod values.
const (
	MethodInvalidInput           CalculationMethod = "invalid_input"
	MethodRaiseToOptimal         CalculationMethod = "raise_to_optimal"
	MethodLowerToOptimal         CalculationMethod = "lower_to_optimal"
	MethodCenterInOptimal        CalculationMethod = "center_in_optimal"
	MethodMaintainCurrentOptimal CalculationMethod = "maintain_current_optimal"
)

// TargetRecommendation is a personalized target for one biomarker. A nil
// TargetValue with MethodInvalidInput means the target could not be computed.
type TargetRecommendation struct {
	BiomarkerKey      string            `json:"biomarker_key"`
	TargetValue       *float64          `json:"target_value"`
	ConfidenceScore   float64           `json:"confidence_score"`
	CalculationMethod CalculationMethod `json:"calculation_method"`
	Reasoning         string            `json:"reasoning"`
	CurrentValue      float64           `json:"current_value"`
	OptimalRange      *OptimalRange     `json:"optimal_range,omitempty"`
	Adjustment        AdjustmentKind    `json:"adjustment,omitempty"`
}

// Valid reports whether the recommendation carries a target.
func (t TargetRecommendation) Valid() bool {
	return t.CalculationMethod != MethodInvalidInput && t.TargetValue != nil
}
