/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	// ErrDatabaseConnectionNotInitialized is returned before Init succeeds.
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	// ErrDatabaseURLNotSet is returned when no connection string is provided.
	ErrDatabaseURLNotSet = errors.New("database URL is not set")
	// ErrDatabaseNameNotSpecified is returned when the URL has no database name.
	ErrDatabaseNameNotSpecified = errors.New("database name not specified in connection string")
	// ErrUserNotFound is returned when a user lookup matches nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailRequired is returned when creating a user without email.
	ErrEmailRequired = errors.New("email is required")
	// ErrDisplayNameRequired is returned when creating a user without a name.
	ErrDisplayNameRequired = errors.New("display name is required")
	// ErrPasswordTooShort is returned for passwords under the minimum length.
	ErrPasswordTooShort = errors.New("password is too short")
	// ErrMetaKeyRequired is returned when a meta key is blank.
	ErrMetaKeyRequired = errors.New("meta key is required")
	// ErrDocumentNotFound is returned when a documentation page is missing.
	ErrDocumentNotFound = errors.New("document not found")
)
