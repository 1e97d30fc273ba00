/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package security

import (
	"context"
	"time"
)

// EventType classifies audit events.
type EventType string

// EventType values.
const (
	EventBlockedIP   EventType = "blocked_ip"
	EventRateLimited EventType = "rate_limited"
	EventSQLi        EventType = "sqli_detected"
	EventXSS         EventType = "xss_detected"
	EventLoginFailed EventType = "login_failed"
)

// Event is one security audit record.
type Event struct {
	Type      EventType `json:"type"`
	IP        string    `json:"ip"`
	UserID    string    `json:"user_id,omitempty"`
	Path      string    `json:"path"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Auditor persists security events.
type Auditor interface {
	RecordSecurityEvent(ctx context.Context, event Event) error
}

// NopAuditor discards events.
type NopAuditor struct{}

// RecordSecurityEvent implements Auditor.
func (NopAuditor) RecordSecurityEvent(context.Context, Event) error { return nil }

// Audit logs event and hands it to the auditor. Auditor failures are
// logged and otherwise ignored.
func (g *Guard) Audit(ctx context.Context, event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = g.now().UTC()
	}

	logger.Warn("Security event",
		"event", string(event.Type),
		"ip", event.IP,
		"path", event.Path,
		"user_id", event.UserID,
		"detail", event.Detail,
	)

	if err := g.auditor.RecordSecurityEvent(ctx, event); err != nil {
		logger.Error("Failed to record security event", "event", string(event.Type), "error", err)
	}
}
