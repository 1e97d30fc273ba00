/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TargetService computes targets for stored users.
type TargetService struct {
	store  MetaStore
	ranges RangeProvider
	now    func() time.Time
}

// NewTargetService creates a TargetService.
func NewTargetService(store MetaStore, ranges RangeProvider) *TargetService {
	return &TargetService{store: store, ranges: ranges, now: time.Now}
}

// userDemographics returns age and gender or ErrDemographicsMissing.
func (s *TargetService) userDemographics(ctx context.Context, userID uuid.UUID) (int, Gender, error) {
	demo, err := LoadDemographics(ctx, s.store, userID)
	if err != nil {
		return 0, "", err
	}

	age, ok := demo.Age(s.now())
	if !ok || demo.Gender == "" {
		return 0, "", ErrDemographicsMissing
	}

	return age, demo.Gender, nil
}

// GenerateAllTargetsForUser computes a target for every stored lab reading
// that has a reference range. Profile-derived readings are never targeted. Missing demographics yield an empty map with
// ErrDemographicsMissing.
func (s *TargetService) GenerateAllTargetsForUser(ctx context.Context, userID uuid.UUID) (map[string]TargetRecommendation, error) {
	targets := map[string]TargetRecommendation{}

	age, gender, err := s.userDemographics(ctx, userID)
	if err != nil {
		return targets, err
	}

	readings, err := LoadReadings(ctx, s.store, userID)
	if err != nil {
		return targets, err
	}

	for key, reading := range readings {
		if IsDerived(key) {
			continue
		}

		rr, err := s.ranges.GetReferenceRange(ctx, key)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return map[string]TargetRecommendation{}, fmt.Errorf("failed to get reference range for %s: %w", key, err)
		}

		targets[key] = CalculatePersonalizedTarget(key, reading.Value, rr, age, gender)
	}

	logger.Debug("Generated targets", "user_id", userID, "readings", len(readings), "targets", len(targets))

	return targets, nil
}

// CalculateForUser computes and validates a target for one value using the
// user's stored demographics.
func (s *TargetService) CalculateForUser(ctx context.Context, userID uuid.UUID, key string, value float64) (TargetRecommendation, TargetValidation, error) {
	canonical, ok := CanonicalKey(key)
	if !ok {
		return TargetRecommendation{}, TargetValidation{}, fmt.Errorf("%w: %q", ErrUnknownBiomarker, key)
	}

	age, gender, err := s.userDemographics(ctx, userID)
	if err != nil {
		return TargetRecommendation{}, TargetValidation{}, err
	}

	rr, err := s.ranges.GetReferenceRange(ctx, canonical)
	if err != nil && !isNotFound(err) {
		return TargetRecommendation{}, TargetValidation{}, fmt.Errorf("failed to get reference range for %s: %w", canonical, err)
	}

	rec := CalculatePersonalizedTarget(canonical, value, rr, age, gender)

	validation := TargetValidation{Warnings: []string{"no target to validate"}}
	if rec.TargetValue != nil {
		validation = ValidateTargetValue(*rec.TargetValue, rr)
	}

	return rec, validation, nil
}
