/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errCSRFSecretRequired    = errors.New("CSRF_SECRET is required")
	errPasswordRequired      = errors.New("password is required (set via --password or ENNU_USER_PASSWORD env var)")
	errInvalidUser           = errors.New("user must be a user ID or an email address")
	errRuleCheckFailed       = errors.New("rule check failed")
)
