/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"fmt"
	"math"
	"strings"
)

const (
	baseConfidence     = 0.8
	minConfidence      = 0.1
	maxConfidence      = 1.0
	quartileFraction   = 0.25
	lowerThirdBoundary = 0.3
	upperThirdBoundary = 0.7
	safetyLowerFactor  = 0.8
	safetyUpperFactor  = 1.2
)

// CalculateTargetByPosition picks a target for current inside the optimal
// interval [optMin, optMax]. position is (current-optMin)/width.
func CalculateTargetByPosition(current, optMin, optMax float64) (target float64, method CalculationMethod, position float64) {
	width := optMax - optMin
	position = (current - optMin) / width

	switch {
	case current < optMin:
		return optMin + quartileFraction*width, MethodRaiseToOptimal, position
	case current > optMax:
		return optMax - quartileFraction*width, MethodLowerToOptimal, position
	case position < lowerThirdBoundary || position > upperThirdBoundary:
		return optMin + width/2, MethodCenterInOptimal, position
	default:
		return current, MethodMaintainCurrentOptimal, position
	}
}

// CalculatePersonalizedTarget computes a target for one biomarker reading.
// Unusable input yields a recommendation with MethodInvalidInput, a nil
// target and zero confidence.
func CalculatePersonalizedTarget(key string, current float64, rr *ReferenceRange, age int, gender Gender) TargetRecommendation {
	rec := TargetRecommendation{
		BiomarkerKey: key,
		CurrentValue: current,
	}

	if rr == nil {
		return invalidTarget(rec, "no reference range available")
	}
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return invalidTarget(rec, "current value is not a finite number")
	}

	optMin, optMax, ok := rr.ResolveOptimal(age, gender)
	if !ok {
		return invalidTarget(rec, "optimal range could not be resolved")
	}
	if !(optMin < optMax) {
		return invalidTarget(rec, fmt.Sprintf("optimal range %.2f-%.2f is empty", optMin, optMax))
	}

	rec.OptimalRange = &OptimalRange{Min: optMin, Max: optMax}

	target, method, position := CalculateTargetByPosition(current, optMin, optMax)
	target = clamp(target, safetyLowerFactor*optMin, safetyUpperFactor*optMax)

	reasons := []string{positionReason(method, current, optMin, optMax)}

	adjustedTarget, note, applied := applyAdjustment(rr.Adjustment, target, age, optMax)
	if applied && crossesCurrent(method, current, adjustedTarget) {
		applied = false
		reasons = append(reasons, "biomarker adjustment skipped to keep target moving toward range")
	}
	if applied {
		target = adjustedTarget
		rec.Adjustment = rr.Adjustment
		reasons = append(reasons, note)
	}

	confidence := baseConfidence
	if !rr.hasDemographicTables() {
		confidence -= 0.1
	}
	if position < 0 || position > 1 {
		confidence -= 0.2
	}
	if method == MethodMaintainCurrentOptimal {
		confidence += 0.1
	}
	if applied {
		confidence -= 0.05
	}

	rec.TargetValue = &target
	rec.CalculationMethod = method
	rec.ConfidenceScore = roundTo(clamp(confidence, minConfidence, maxConfidence), 2)
	rec.Reasoning = strings.Join(reasons, "; ")

	return rec
}

func invalidTarget(rec TargetRecommendation, reason string) TargetRecommendation {
	rec.TargetValue = nil
	rec.ConfidenceScore = 0
	rec.CalculationMethod = MethodInvalidInput
	rec.Reasoning = reason
	return rec
}

func positionReason(method CalculationMethod, current, optMin, optMax float64) string {
	switch method {
	case MethodRaiseToOptimal:
		return fmt.Sprintf("current value %.2f is below optimal range %.2f-%.2f; targeting lower quartile", current, optMin, optMax)
	case MethodLowerToOptimal:
		return fmt.Sprintf("current value %.2f is above optimal range %.2f-%.2f; targeting upper quartile", current, optMin, optMax)
	case MethodCenterInOptimal:
		return fmt.Sprintf("current value %.2f is near the edge of optimal range %.2f-%.2f; targeting midpoint", current, optMin, optMax)
	default:
		return fmt.Sprintf("current value %.2f is well within optimal range %.2f-%.2f; maintain", current, optMin, optMax)
	}
}

// applyAdjustment returns the nudged target for kind. applied is false when
// the kind does not apply to these demographics.
func applyAdjustment(kind AdjustmentKind, target float64, age int, optMax float64) (adjusted float64, note string, applied bool) {
	switch kind {
	case AdjustTestosterone:
		if age > 40 {
			return target * 1.05, "raised 5% for age over 40", true
		}
	case AdjustVitaminD:
		return math.Min(target*1.1, 1.1*optMax), "raised 10% for vitamin D sufficiency", true
	case AdjustCortisol:
		return target * 0.95, "lowered 5% for stress hormone balance", true
	case AdjustLipidLower:
		return target * 0.9, "lowered 10% for cardiovascular risk reduction", true
	case AdjustHDL:
		return target * 1.1, "raised 10% for cardioprotective benefit", true
	}

	return target, "", false
}

// crossesCurrent reports whether an adjusted target ended up on the wrong
// side of current for a raise or lower policy.
func crossesCurrent(method CalculationMethod, current, adjusted float64) bool {
	switch method {
	case MethodRaiseToOptimal:
		return adjusted <= current
	case MethodLowerToOptimal:
		return adjusted >= current
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
