/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParsedCSV holds readings parsed from an import file along with per-row
// warnings.
type ParsedCSV struct {
	Readings []Reading `json:"readings"`
	Warnings []string  `json:"warnings"`
}

// ImportSummary reports the outcome of a CSV import.
type ImportSummary struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Keys     []string `json:"keys"`
	Warnings []string `json:"warnings"`
}

// ParseCSV reads biomarker_name,value,unit,date rows. The first row is
// always treated as a header. Dates that are not YYYY-MM-DD become today.
func ParseCSV(r io.Reader, today time.Time) (ParsedCSV, error) {
	parsed := ParsedCSV{Readings: []Reading{}, Warnings: []string{}}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return parsed, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}

		line++
		if line == 1 {
			continue
		}
		if isBlankRecord(record) {
			continue
		}

		if len(record) < 2 {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("row %d: expected at least biomarker name and value", line))
			continue
		}

		name := strings.TrimSpace(record[0])
		key, ok := CanonicalKey(name)
		if !ok {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("row %d: unknown biomarker %q", line, name))
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("row %d: invalid value %q for %s", line, record[1], name))
			continue
		}

		reading := Reading{
			Key:    key,
			Value:  value,
			Source: SourceCSVImport,
		}
		if len(record) > 2 {
			reading.Unit = strings.TrimSpace(record[2])
		}

		reading.MeasuredAt = today
		if len(record) > 3 {
			raw := strings.TrimSpace(record[3])
			measured, err := time.Parse(DateLayout, raw)
			if err != nil {
				parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("row %d: invalid date %q, using today", line, raw))
			} else {
				reading.MeasuredAt = measured
			}
		} else {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("row %d: missing date, using today", line))
		}

		parsed.Readings = append(parsed.Readings, reading)
	}

	return parsed, nil
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ImportCSV parses r and saves its readings for userID.
func ImportCSV(ctx context.Context, store MetaStore, userID uuid.UUID, r io.Reader, overwrite bool) (ImportSummary, error) {
	summary := ImportSummary{Keys: []string{}, Warnings: []string{}}

	parsed, err := ParseCSV(r, time.Now().UTC())
	if err != nil {
		return summary, err
	}
	summary.Warnings = parsed.Warnings

	if len(parsed.Readings) == 0 {
		return summary, ErrEmptyCSV
	}

	result, err := SaveReadings(ctx, store, userID, parsed.Readings, overwrite)
	if err != nil {
		return summary, err
	}

	summary.Imported = result.Saved
	summary.Skipped = result.Skipped
	summary.Keys = result.Keys

	logger.Info("CSV import completed", "user_id", userID, "imported", summary.Imported, "skipped", summary.Skipped, "warnings", len(summary.Warnings))

	return summary, nil
}
