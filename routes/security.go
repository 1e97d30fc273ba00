/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"

	"github.com/humaidq/ennu/security"
)

// Form fields never scanned for injection payloads.
var unscannedFields = []string{"password", "_csrf"}

// SecurityGuard rejects blocked and rate-limited clients and requests whose
// query or urlencoded form values carry SQL injection or XSS payloads.
func SecurityGuard(c flamego.Context, s session.Session, svc *Services) {
	ip := clientIP(c)
	ctx := c.Request().Context()
	userID, _ := getSessionUserID(s)

	event := security.Event{
		IP:     ip,
		UserID: userID,
		Path:   c.Request().URL.Path,
	}

	if svc.Guard.IsBlocked(ip) {
		event.Type = security.EventBlockedIP
		svc.Guard.Audit(ctx, event)
		rejectRequest(c, s, "blocked_ip", http.StatusForbidden, "access denied")
		return
	}

	if !svc.Guard.Allow(ip) {
		event.Type = security.EventRateLimited
		svc.Guard.Audit(ctx, event)
		c.ResponseWriter().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(svc.Guard.Config())))
		rejectRequest(c, s, "rate_limited", http.StatusTooManyRequests, "too many requests")
		return
	}

	if findings := scanRequest(c); len(findings) > 0 {
		first := findings[0]
		event.Type = first.Type
		event.Detail = "field=" + first.Field
		if first.Fingerprint != "" {
			event.Detail += " fingerprint=" + first.Fingerprint
		}
		svc.Guard.Audit(ctx, event)
		rejectRequest(c, s, string(first.Type), http.StatusBadRequest, "request rejected")
		return
	}

	c.Next()
}

func scanRequest(c flamego.Context) []security.Finding {
	findings := security.ScanValues(c.Request().URL.Query(), unscannedFields...)

	if c.Request().Method != http.MethodPost {
		return findings
	}

	mediaType, _, err := mime.ParseMediaType(c.Request().Header.Get("Content-Type"))
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return findings
	}

	if err := c.Request().ParseForm(); err != nil {
		return findings
	}

	return append(findings, security.ScanValues(c.Request().PostForm, unscannedFields...)...)
}

func rejectRequest(c flamego.Context, s session.Session, reason string, status int, message string) {
	logAccessDenied(c, s, reason, status, "")
	if isAPIRequest(c) {
		respondError(c, status, message)
		return
	}
	http.Error(c.ResponseWriter(), message, status)
}

func retryAfterSeconds(cfg security.Config) int {
	if cfg.RequestsPerMinute <= 0 {
		return 60
	}
	seconds := int(60 / cfg.RequestsPerMinute)
	if seconds < 1 {
		return 1
	}
	return seconds
}

// getClientIP extracts the real client IP address
func getClientIP(r *flamego.Request) string {
	// Check X-Forwarded-For header (first entry is the client)
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first := xff
		if idx := strings.Index(xff, ","); idx != -1 {
			first = xff[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	// Check X-Real-IP header
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	// Fallback to RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// BlockIP adds an address to the block list and persists it.
func BlockIP(c flamego.Context, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	ip := trimmedFormValue(c, "ip")
	if err := svc.Guard.Block(ip); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	saveGuardState(c, svc)
}

// UnblockIP removes an address from the block list and persists it.
func UnblockIP(c flamego.Context, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	svc.Guard.Unblock(trimmedFormValue(c, "ip"))
	saveGuardState(c, svc)
}

// UpdateRateLimit replaces the rate-limit settings and persists them.
func UpdateRateLimit(c flamego.Context, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	rpm, err := strconv.ParseFloat(trimmedFormValue(c, "requests_per_minute"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "requests_per_minute must be a number")
		return
	}
	burst, err := strconv.Atoi(trimmedFormValue(c, "burst"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "burst must be an integer")
		return
	}

	if err := svc.Guard.UpdateConfig(security.Config{RequestsPerMinute: rpm, Burst: burst}); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	saveGuardState(c, svc)
}

// SecurityStatus reports the block list and rate-limit settings.
func SecurityStatus(c flamego.Context, svc *Services) {
	respondOK(c, guardState(svc))
}

func guardState(svc *Services) map[string]any {
	return map[string]any{
		"blocked_ips": svc.Guard.BlockedIPs(),
		"rate_limit":  svc.Guard.Config(),
	}
}

func saveGuardState(c flamego.Context, svc *Services) {
	if svc.Settings != nil {
		if err := svc.Guard.Save(c.Request().Context(), svc.Settings); err != nil {
			logger.Error("Failed to persist security settings", "error", err)
			respondError(c, http.StatusInternalServerError, "failed to persist security settings")
			return
		}
	}

	respondOK(c, guardState(svc))
}
