/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package security

import "errors"

var (
	// ErrInvalidConfig is returned for non-positive rate limit settings.
	ErrInvalidConfig = errors.New("invalid rate limit config")
	// ErrInvalidIP is returned when an address cannot be parsed.
	ErrInvalidIP = errors.New("invalid IP address")
)
