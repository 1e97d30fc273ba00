/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package completeness

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/humaidq/ennu/rules"
)

// Evaluate scores meta against the configured sections. It never fails;
// undecodable values count as missing.
func Evaluate(r *rules.Rules, meta map[string][]byte, now time.Time) Record {
	rec := emptyRecord(now)

	threshold := r.Completeness.CompletedThreshold
	weighted := 0.0
	totalWeight := 0

	for _, section := range r.Completeness.Sections {
		detail := SectionDetail{
			Title:           section.Title,
			Weight:          section.Weight,
			CompletedFields: []string{},
			MissingFields:   []string{},
		}

		for _, field := range section.Fields {
			if fieldComplete(field, meta[field.Key]) {
				detail.CompletedFields = append(detail.CompletedFields, field.Key)
			} else {
				detail.MissingFields = append(detail.MissingFields, field.Key)
			}
		}

		detail.Percentage = SectionPercentage(len(detail.CompletedFields), len(section.Fields))
		detail.Completed = detail.Percentage >= threshold
		rec.SectionDetails[section.Key] = detail

		if detail.Completed {
			rec.CompletedSections = append(rec.CompletedSections, section.Key)
		} else {
			rec.MissingSections = append(rec.MissingSections, MissingSection{
				Section:       section.Key,
				Title:         section.Title,
				Percentage:    detail.Percentage,
				MissingFields: detail.MissingFields,
				Weight:        section.Weight,
			})
			rec.Recommendations = append(rec.Recommendations, recommendationFor(section))
		}

		weighted += float64(detail.Percentage * section.Weight)
		totalWeight += section.Weight
	}

	if totalWeight > 0 {
		rec.OverallPercentage = clampPercent(int(math.Round(weighted / float64(totalWeight))))
	}
	rec.AccuracyLevel = AccuracyFor(rec.OverallPercentage)

	SortRecommendations(rec.Recommendations)

	return rec
}

// SectionPercentage is done/total as a rounded integer percentage.
func SectionPercentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	return clampPercent(int(math.Round(float64(done) / float64(total) * 100)))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// SortRecommendations orders by priority, then by section weight descending.
func SortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recs[i].Priority.Rank(), recs[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return recs[i].Weight > recs[j].Weight
	})
}

func recommendationFor(section rules.Section) Recommendation {
	rec := Recommendation{Section: section.Key, Weight: section.Weight}

	switch section.Key {
	case "basic_demographics":
		rec.Priority = PriorityCritical
		rec.Title = "Complete Your Basic Information"
		rec.Description = "Add your date of birth, gender, height and weight so scores and targets can be personalized."
		rec.ActionURL = "/profile#demographics"
		rec.EstimatedTime = "2 minutes"
	case "health_goals":
		rec.Priority = PriorityHigh
		rec.Title = "Set Your Health Goals"
		rec.Description = "Choose the goals you care about so recommendations can focus on them."
		rec.ActionURL = "/profile#goals"
		rec.EstimatedTime = "1 minute"
	case "assessments_completed":
		rec.Priority = PriorityHigh
		rec.Title = "Complete Health Assessments"
		rec.Description = "Finish the remaining assessments to unlock accurate health scores."
		rec.ActionURL = "/assessments"
		rec.EstimatedTime = "10-15 minutes"
	case "symptoms_data":
		rec.Priority = PriorityMedium
		rec.Title = "Track Your Symptoms"
		rec.Description = "Report current symptoms so related lab tests can be suggested."
		rec.ActionURL = "/symptoms"
		rec.EstimatedTime = "5 minutes"
	case "biomarkers_data":
		rec.Priority = PriorityMedium
		rec.Title = "Upload Lab Results"
		rec.Description = "Import recent lab results to get personalized biomarker targets."
		rec.ActionURL = "/biomarkers/import"
		rec.EstimatedTime = "5 minutes"
	default:
		rec.Priority = PriorityLow
		rec.Title = "Complete " + section.Title
		rec.Description = "Fill in the remaining fields in this section."
		rec.ActionURL = "/profile"
		rec.EstimatedTime = "5 minutes"
	}

	return rec
}

// fieldComplete reports whether a stored value satisfies field. Assessment
// fields must hold a number or numeric string.
func fieldComplete(field rules.Field, raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return false
	}

	if field.Kind == rules.FieldAssessment {
		return isNumeric(v)
	}

	return present(v)
}

func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

func isNumeric(v any) bool {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}
