/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errSessionUserMissing = errors.New("session user missing")
	errInvalidUserID      = errors.New("invalid user_id")
	errUserIDRequired     = errors.New("user_id is required")
	errForeignUser        = errors.New("only administrators may act on other users")
	errInvalidValue       = errors.New("value must be a number")
	errInvalidDate        = errors.New("date must be YYYY-MM-DD")
	errMissingBiomarker   = errors.New("biomarker is required")
	errMissingCSVFile     = errors.New("csv_file is required")
)
