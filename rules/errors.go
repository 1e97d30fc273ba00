/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package rules

import "errors"

var (
	// ErrInvalidRules is returned for structurally invalid rule files.
	ErrInvalidRules = errors.New("invalid rules")
	// ErrNoSections is returned when no completeness sections are configured.
	ErrNoSections = errors.New("no completeness sections defined")
	// ErrWeightsSum is returned when section weights do not sum to 100.
	ErrWeightsSum = errors.New("completeness section weights must sum to 100")
	// ErrUnknownBiomarker is returned when a rule references an untracked biomarker.
	ErrUnknownBiomarker = errors.New("rules reference unknown biomarker")
)
