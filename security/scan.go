/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package security

import (
	"net/url"
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// Finding describes an injection pattern found in a request value.
type Finding struct {
	Field       string    `json:"field"`
	Type        EventType `json:"type"`
	Fingerprint string    `json:"fingerprint,omitempty"`
}

// ScanValue checks a single value for SQL injection and XSS payloads.
// It returns nil when the value is clean.
func ScanValue(field, value string) *Finding {
	if value == "" {
		return nil
	}

	if libinjection.IsXSS(value) {
		return &Finding{Field: field, Type: EventXSS}
	}

	if isSQLi, fingerprint := libinjection.IsSQLi(value); isSQLi {
		return &Finding{Field: field, Type: EventSQLi, Fingerprint: string(fingerprint)}
	}

	return nil
}

// ScanValues checks every value in values, skipping fields in skip.
// Findings are ordered by field name.
func ScanValues(values url.Values, skip ...string) []Finding {
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}

	fields := make([]string, 0, len(values))
	for name := range values {
		if !skipped[name] {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)

	var findings []Finding
	for _, name := range fields {
		for _, value := range values[name] {
			if finding := ScanValue(name, value); finding != nil {
				findings = append(findings, *finding)
				break
			}
		}
	}

	return findings
}
