/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated account.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	IsAdmin      bool      `db:"is_admin"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// AuditEntry is a stored security event.
type AuditEntry struct {
	ID        int64      `db:"id"`
	EventType string     `db:"event_type"`
	IP        string     `db:"ip"`
	UserID    *uuid.UUID `db:"user_id"`
	Path      string     `db:"path"`
	Detail    string     `db:"detail"`
	CreatedAt time.Time  `db:"created_at"`
}

// Document is an admin-editable documentation page.
type Document struct {
	Slug      string    `db:"slug"`
	Title     string    `db:"title"`
	BodyHTML  string    `db:"body_html"`
	UpdatedAt time.Time `db:"updated_at"`
}
