/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package completeness

import "time"

// MetaProfileCompleteness is the user meta key holding the persisted Record.
const MetaProfileCompleteness = "ennu_profile_completeness"

// AccuracyLevel describes how reliable scores are given profile coverage.
type AccuracyLevel string

// AccuracyLevel values, lowest first.
const (
	AccuracyLow       AccuracyLevel = "low"
	AccuracyModerate  AccuracyLevel = "moderate"
	AccuracyMedium    AccuracyLevel = "medium"
	AccuracyHigh      AccuracyLevel = "high"
	AccuracyExcellent AccuracyLevel = "excellent"
)

// AccuracyFor maps an overall percentage to its tier.
func AccuracyFor(pct int) AccuracyLevel {
	switch {
	case pct >= 90:
		return AccuracyExcellent
	case pct >= 80:
		return AccuracyHigh
	case pct >= 60:
		return AccuracyMedium
	case pct >= 40:
		return AccuracyModerate
	default:
		return AccuracyLow
	}
}

// Priority orders improvement recommendations.
type Priority string

// Priority values.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns a sort key where lower is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// MissingSection summarizes a section that is not yet completed.
type MissingSection struct {
	Section       string   `json:"section"`
	Title         string   `json:"title"`
	Percentage    int      `json:"percentage"`
	MissingFields []string `json:"missing_fields"`
	Weight        int      `json:"weight"`
}

// SectionDetail is the per-section breakdown.
type SectionDetail struct {
	Title           string   `json:"title"`
	Percentage      int      `json:"percentage"`
	Completed       bool     `json:"completed"`
	Weight          int      `json:"weight"`
	CompletedFields []string `json:"completed_fields"`
	MissingFields   []string `json:"missing_fields"`
}

// Recommendation suggests how to complete a section.
type Recommendation struct {
	Section       string   `json:"section"`
	Priority      Priority `json:"priority"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ActionURL     string   `json:"action_url"`
	EstimatedTime string   `json:"estimated_time"`
	Weight        int      `json:"weight"`
}

// Record is a user's profile completeness snapshot.
type Record struct {
	OverallPercentage int                      `json:"overall_percentage"`
	AccuracyLevel     AccuracyLevel            `json:"accuracy_level"`
	CompletedSections []string                 `json:"completed_sections"`
	MissingSections   []MissingSection         `json:"missing_sections"`
	SectionDetails    map[string]SectionDetail `json:"section_details"`
	Recommendations   []Recommendation         `json:"recommendations"`
	LastUpdated       time.Time                `json:"last_updated"`
}

// emptyRecord returns a zero-percentage record with non-nil collections.
func emptyRecord(now time.Time) Record {
	return Record{
		OverallPercentage: 0,
		AccuracyLevel:     AccuracyLow,
		CompletedSections: []string{},
		MissingSections:   []MissingSection{},
		SectionDetails:    map[string]SectionDetail{},
		Recommendations:   []Recommendation{},
		LastUpdated:       now,
	}
}

// normalize replaces nil collections with empty ones.
func (r *Record) normalize() {
	if r.CompletedSections == nil {
		r.CompletedSections = []string{}
	}
	if r.MissingSections == nil {
		r.MissingSections = []MissingSection{}
	}
	for i := range r.MissingSections {
		if r.MissingSections[i].MissingFields == nil {
			r.MissingSections[i].MissingFields = []string{}
		}
	}
	if r.SectionDetails == nil {
		r.SectionDetails = map[string]SectionDetail{}
	}
	for k, d := range r.SectionDetails {
		if d.CompletedFields == nil {
			d.CompletedFields = []string{}
		}
		if d.MissingFields == nil {
			d.MissingFields = []string{}
		}
		r.SectionDetails[k] = d
	}
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
	if r.OverallPercentage < 0 {
		r.OverallPercentage = 0
	}
	if r.OverallPercentage > 100 {
		r.OverallPercentage = 100
	}
	if r.AccuracyLevel == "" {
		r.AccuracyLevel = AccuracyFor(r.OverallPercentage)
	}
}
