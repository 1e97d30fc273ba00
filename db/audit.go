/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/humaidq/ennu/security"
)

// AuditLog writes security events to security_audit_log. It satisfies
// security.Auditor.
type AuditLog struct{}

// RecordSecurityEvent inserts event.
func (AuditLog) RecordSecurityEvent(ctx context.Context, event security.Event) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	var userID *uuid.UUID
	if parsed, err := uuid.Parse(event.UserID); err == nil {
		userID = &parsed
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO security_audit_log (event_type, ip, user_id, path, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, string(event.Type), event.IP, userID, event.Path, event.Detail, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record security event: %w", err)
	}

	return nil
}

// ListAuditEntries returns the most recent security events.
func ListAuditEntries(ctx context.Context, limit int) ([]AuditEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := pool.Query(ctx, `
		SELECT id, event_type, ip, user_id, path, detail, created_at
		FROM security_audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		if err := rows.Scan(
			&entry.ID, &entry.EventType, &entry.IP, &entry.UserID,
			&entry.Path, &entry.Detail, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}
