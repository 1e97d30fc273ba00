/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/logging"
	"github.com/humaidq/ennu/rules"
)

var logger = logging.Logger(logging.SourceEngine)

// Reason is why a biomarker test is recommended.
type Reason string

// Reason values.
const (
	ReasonMissing  Reason = "missing"
	ReasonOutdated Reason = "outdated"
	ReasonAbnormal Reason = "abnormal"
)

func (r Reason) weight() float64 {
	switch r {
	case ReasonAbnormal:
		return 5
	case ReasonMissing:
		return 3
	case ReasonOutdated:
		return 2
	}
	return 0
}

// Priority ranks recommendations.
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

// UrgencyBucket maps a 1-5 urgency score to a priority.
func UrgencyBucket(score float64) Priority {
	switch {
	case score >= 4:
		return PriorityCritical
	case score >= 3:
		return PriorityHigh
	case score >= 2:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Recommendation suggests testing a biomarker because of a symptom.
type Recommendation struct {
	BiomarkerKey  string     `json:"biomarker_key"`
	BiomarkerName string     `json:"biomarker_name"`
	Symptom       string     `json:"symptom"`
	Reason        Reason     `json:"reason"`
	Priority      Priority   `json:"priority"`
	Urgency       Priority   `json:"urgency"`
	UrgencyScore  float64    `json:"urgency_score"`
	Message       string     `json:"message"`
	LastTested    *time.Time `json:"last_tested,omitempty"`
	CurrentValue  *float64   `json:"current_value,omitempty"`
}

// Engine produces test recommendations for one user.
type Engine struct {
	store  biomarker.MetaStore
	rules  *rules.Rules
	userID uuid.UUID
	now    func() time.Time
}

// NewEngine binds an engine to userID.
func NewEngine(store biomarker.MetaStore, r *rules.Rules, userID uuid.UUID) *Engine {
	return &Engine{store: store, rules: r, userID: userID, now: time.Now}
}

// GetUpdatedRecommendations reads the user's symptoms and readings and
// returns deduplicated recommendations, most urgent first.
func (e *Engine) GetUpdatedRecommendations(ctx context.Context) ([]Recommendation, error) {
	symptoms, err := LoadSymptoms(ctx, e.store, e.userID)
	if err != nil {
		return nil, err
	}

	readings, err := biomarker.LoadReadings(ctx, e.store, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}

	recs := Recommend(e.rules, symptoms, readings, e.now())

	logger.Debug("Recommendations generated", "user_id", e.userID, "symptoms", len(symptoms), "recommendations", len(recs))

	return recs, nil
}

// Recommend evaluates every biomarker correlated with symptoms.
func Recommend(r *rules.Rules, symptoms []string, readings map[string]biomarker.Reading, now time.Time) []Recommendation {
	var candidates []Recommendation

	for _, symptom := range symptoms {
		for _, key := range r.CorrelatedBiomarkers(symptom) {
			rec, ok := evaluate(r, symptom, key, readings, now)
			if ok {
				candidates = append(candidates, rec)
			}
		}
	}

	out := Deduplicate(candidates)

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if pi != pj {
			return pi < pj
		}
		return out[i].UrgencyScore > out[j].UrgencyScore
	})

	return out
}

func evaluate(r *rules.Rules, symptom, key string, readings map[string]biomarker.Reading, now time.Time) (Recommendation, bool) {
	name := key
	if def, ok := biomarker.Lookup(key); ok {
		name = def.Name
	}

	rec := Recommendation{
		BiomarkerKey:  key,
		BiomarkerName: name,
		Symptom:       symptom,
	}

	reading, tested := readings[key]
	switch {
	case !tested:
		rec.Reason = ReasonMissing
		rec.Priority = PriorityHigh
		rec.Message = fmt.Sprintf("%s has never been tested and is linked to %s", name, symptom)
	default:
		measured := reading.MeasuredAt
		value := reading.Value
		rec.LastTested = &measured
		rec.CurrentValue = &value

		retest := time.Duration(r.RetestDays(key)) * 24 * time.Hour
		if fu, ok := r.FollowUp(key); ok && fu.Abnormal(reading.Value) {
			rec.Reason = ReasonAbnormal
			rec.Priority = PriorityHigh
			rec.Message = fu.Reason
		} else if now.Sub(measured) > retest {
			rec.Reason = ReasonOutdated
			rec.Priority = PriorityMedium
			rec.Message = fmt.Sprintf("%s was last tested %s and should be retested every %d days",
				name, measured.Format(biomarker.DateLayout), r.RetestDays(key))
		} else {
			return Recommendation{}, false
		}
	}

	rec.UrgencyScore = UrgencyScore(r.SymptomSeverity(symptom), r.BiomarkerSeverity(key), rec.Reason)
	rec.Urgency = UrgencyBucket(rec.UrgencyScore)

	return rec, true
}

// UrgencyScore blends symptom severity, biomarker severity and reason.
func UrgencyScore(symptomSeverity, biomarkerSeverity float64, reason Reason) float64 {
	score := 0.4*symptomSeverity + 0.4*biomarkerSeverity + 0.2*reason.weight()
	return math.Round(score*100) / 100
}

// Deduplicate keeps one recommendation per biomarker: the higher priority
// wins, and ties keep the higher urgency score. First-seen order is kept.
func Deduplicate(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, 0, len(recs))

	for _, rec := range recs {
		found := false
		for i := range out {
			if out[i].BiomarkerKey != rec.BiomarkerKey {
				continue
			}
			if better(rec, out[i]) {
				out[i] = rec
			}
			found = true
			break
		}
		if !found {
			out = append(out, rec)
		}
	}

	return out
}

func better(a, b Recommendation) bool {
	if a.Priority.Rank() != b.Priority.Rank() {
		return a.Priority.Rank() < b.Priority.Rank()
	}
	return a.UrgencyScore > b.UrgencyScore
}
