/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"fmt"
	"math"
)

// TargetValidation is an advisory safety check for a proposed target.
type TargetValidation struct {
	IsSafe    bool     `json:"is_safe"`
	IsOptimal bool     `json:"is_optimal"`
	SafeMin   *float64 `json:"safe_min,omitempty"`
	SafeMax   *float64 `json:"safe_max,omitempty"`
	Warnings  []string `json:"warnings"`
}

// ValidateTargetValue checks target against a band widened 20% beyond the
// critical bounds, falling back to normal bounds. It never modifies target.
func ValidateTargetValue(target float64, rr *ReferenceRange) TargetValidation {
	result := TargetValidation{Warnings: []string{}}

	if rr == nil {
		result.Warnings = append(result.Warnings, "no reference range available for validation")
		return result
	}
	if math.IsNaN(target) || math.IsInf(target, 0) {
		result.Warnings = append(result.Warnings, "target value is not a finite number")
		return result
	}

	lower := rr.CriticalMin
	if lower == nil {
		lower = rr.NormalMin
	}
	upper := rr.CriticalMax
	if upper == nil {
		upper = rr.NormalMax
	}

	result.IsSafe = true

	if lower != nil {
		v := *lower * safetyLowerFactor
		result.SafeMin = &v
		if target < v {
			result.IsSafe = false
			result.Warnings = append(result.Warnings, fmt.Sprintf("target %.2f is below the safe minimum %.2f", target, v))
		}
	}

	if upper != nil {
		v := *upper * safetyUpperFactor
		result.SafeMax = &v
		if target > v {
			result.IsSafe = false
			result.Warnings = append(result.Warnings, fmt.Sprintf("target %.2f is above the safe maximum %.2f", target, v))
		}
	}

	if lower == nil && upper == nil {
		result.Warnings = append(result.Warnings, "reference range has no critical or normal bounds")
	}

	optMin, optMax := rr.baseOptimal()
	if optMin != nil && optMax != nil {
		result.IsOptimal = target >= *optMin && target <= *optMax
		if !result.IsOptimal {
			result.Warnings = append(result.Warnings, "target is outside the optimal range")
		}
	}

	return result
}
