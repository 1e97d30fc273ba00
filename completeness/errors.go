/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package completeness

import "errors"

var (
	// ErrProfileUnavailable is returned when profile metadata cannot be read.
	ErrProfileUnavailable = errors.New("profile metadata unavailable")
	// ErrPersistFailed is returned when a computed record cannot be saved.
	ErrPersistFailed = errors.New("failed to persist completeness record")
)
