/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import "errors"

var (
	// ErrDemographicsMissing is returned when a user lacks age or gender.
	ErrDemographicsMissing = errors.New("user age and gender are required")
	// ErrReferenceRangeNotFound is returned by providers for unknown biomarkers.
	ErrReferenceRangeNotFound = errors.New("reference range not found")
	// ErrUnknownBiomarker is returned when a key cannot be canonicalized.
	ErrUnknownBiomarker = errors.New("unknown biomarker")
	// ErrReadingExists is returned when saving over an existing reading without overwrite.
	ErrReadingExists = errors.New("reading already exists")
	// ErrReadingOlder is returned when overwriting with a reading older than the stored one.
	ErrReadingOlder = errors.New("a newer reading is already stored")
	// ErrInvalidReading is returned for non-finite values or invalid sources.
	ErrInvalidReading = errors.New("invalid biomarker reading")
	// ErrFlagNotFound is returned when unflagging an unknown flag.
	ErrFlagNotFound = errors.New("biomarker flag not found")
	// ErrNoProfileData is returned by auto-sync when nothing can be derived.
	ErrNoProfileData = errors.New("no profile data to sync")
	// ErrEmptyCSV is returned for imports with no data rows.
	ErrEmptyCSV = errors.New("csv contains no data rows")
	// ErrMalformedCSV is returned when an import file cannot be parsed.
	ErrMalformedCSV = errors.New("malformed csv")
)
