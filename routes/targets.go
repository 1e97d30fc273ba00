/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/flamego/flamego"
	"github.com/flamego/session"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/completeness"
)

// ListTargets returns a personalized target for every stored reading.
func ListTargets(c flamego.Context, s session.Session, svc *Services) {
	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	targets, err := svc.Targets.GenerateAllTargetsForUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, biomarker.ErrDemographicsMissing) {
			respondError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.Error("Failed to generate targets", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to generate targets")
		return
	}

	respondOK(c, map[string]any{"targets": targets, "count": len(targets)})
}

// CalculateTarget computes and validates a target for a submitted value.
func CalculateTarget(c flamego.Context, s session.Session, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	key := trimmedFormValue(c, "biomarker")
	if key == "" {
		respondError(c, http.StatusBadRequest, errMissingBiomarker.Error())
		return
	}

	value, err := strconv.ParseFloat(trimmedFormValue(c, "value"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, errInvalidValue.Error())
		return
	}

	target, validation, err := svc.Targets.CalculateForUser(c.Request().Context(), userID, key, value)
	switch {
	case errors.Is(err, biomarker.ErrUnknownBiomarker):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, biomarker.ErrDemographicsMissing):
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		logger.Error("Failed to calculate target", "user_id", userID, "biomarker", key, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to calculate target")
		return
	}

	respondOK(c, map[string]any{"target": target, "validation": validation})
}

// RecalculateCompleteness rescores the profile and stores the result. A
// record that was computed but could not be stored is still returned.
func RecalculateCompleteness(c flamego.Context, s session.Session, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	record, err := svc.Completeness.Calculate(c.Request().Context(), userID)
	switch {
	case errors.Is(err, completeness.ErrPersistFailed):
		respondOK(c, map[string]any{"completeness": record, "persisted": false})
		return
	case err != nil:
		respondError(c, http.StatusServiceUnavailable, "profile is unavailable")
		return
	}

	respondOK(c, map[string]any{"completeness": record, "persisted": true})
}

// GetCompleteness returns the stored completeness record, computing it when
// none exists yet.
func GetCompleteness(c flamego.Context, s session.Session, svc *Services) {
	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	record, err := svc.Completeness.ForDisplay(c.Request().Context(), userID)
	switch {
	case errors.Is(err, completeness.ErrPersistFailed):
		respondOK(c, map[string]any{"completeness": record})
		return
	case err != nil:
		respondError(c, http.StatusServiceUnavailable, "profile is unavailable")
		return
	}

	respondOK(c, map[string]any{"completeness": record})
}

// GetRecommendations returns biomarker tests suggested by reported symptoms.
func GetRecommendations(c flamego.Context, s session.Session, svc *Services) {
	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	recs, err := svc.recommendations(c.Request().Context(), userID)
	if err != nil {
		logger.Error("Failed to build recommendations", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to build recommendations")
		return
	}

	respondOK(c, map[string]any{"recommendations": recs, "count": len(recs)})
}
