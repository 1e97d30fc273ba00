/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"

	"github.com/humaidq/ennu/biomarker"
)

// ReferenceRangeDefinition is one row of the reference_ranges table. The
// row with AgeAll and GenderUnisex carries the base optimal, normal and
// critical bounds; other rows carry optimal overrides only.
type ReferenceRangeDefinition struct {
	BiomarkerKey string
	AgeRange     biomarker.AgeRange
	Gender       biomarker.Gender
	OptimalMin   *float64
	OptimalMax   *float64
	NormalMin    *float64
	NormalMax    *float64
	CriticalMin  *float64
	CriticalMax  *float64
}

func (d ReferenceRangeDefinition) isBase() bool {
	return d.AgeRange == biomarker.AgeAll && d.Gender == biomarker.GenderUnisex
}

// ptr is a helper to create pointers to float64 literals
func ptr(f float64) *float64 {
	return &f
}

// GetReferenceRangeDefinitions returns all reference ranges to be synced to the database
// This is the authoritative source of truth for reference ranges
func GetReferenceRangeDefinitions() []ReferenceRangeDefinition {
	all, unisex := biomarker.AgeAll, biomarker.GenderUnisex

	return []ReferenceRangeDefinition{
		// ===== VITAMIN D, 25-OH (ng/mL) =====
		{
			BiomarkerKey: biomarker.KeyVitaminD, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(50), OptimalMax: ptr(80),
			NormalMin: ptr(30), NormalMax: ptr(100),
			CriticalMin: ptr(10), CriticalMax: ptr(150),
		},
		{
			BiomarkerKey: biomarker.KeyVitaminD, AgeRange: biomarker.AgeSenior, Gender: unisex,
			OptimalMin: ptr(40), OptimalMax: ptr(80),
		},

		// ===== TESTOSTERONE, TOTAL (ng/dL) =====
		// Base row is the adult male range; female override replaces it
		{
			BiomarkerKey: biomarker.KeyTestosterone, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(500), OptimalMax: ptr(900),
			NormalMin: ptr(264), NormalMax: ptr(916),
			CriticalMin: ptr(150), CriticalMax: ptr(1500),
		},
		{
			BiomarkerKey: biomarker.KeyTestosterone, AgeRange: biomarker.AgeSenior, Gender: unisex,
			OptimalMin: ptr(400), OptimalMax: ptr(800),
		},
		{
			BiomarkerKey: biomarker.KeyTestosterone, AgeRange: all, Gender: biomarker.GenderFemale,
			OptimalMin: ptr(25), OptimalMax: ptr(60),
		},

		// ===== TESTOSTERONE, FREE (pg/mL) =====
		{
			BiomarkerKey: biomarker.KeyFreeT, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(100), OptimalMax: ptr(200),
			NormalMin: ptr(46), NormalMax: ptr(224),
			CriticalMin: ptr(20), CriticalMax: ptr(400),
		},
		{
			BiomarkerKey: biomarker.KeyFreeT, AgeRange: all, Gender: biomarker.GenderFemale,
			OptimalMin: ptr(3), OptimalMax: ptr(7),
		},

		// ===== CORTISOL, AM (µg/dL) =====
		{
			BiomarkerKey: biomarker.KeyCortisol, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(10), OptimalMax: ptr(18),
			NormalMin: ptr(6), NormalMax: ptr(23),
			CriticalMin: ptr(3), CriticalMax: ptr(50),
		},

		// ===== LIPIDS (mg/dL) =====
		{
			BiomarkerKey: biomarker.KeyLDL, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(50), OptimalMax: ptr(100),
			NormalMin: ptr(40), NormalMax: ptr(130),
			CriticalMin: ptr(20), CriticalMax: ptr(190),
		},
		{
			BiomarkerKey: biomarker.KeyHDL, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(60), OptimalMax: ptr(90),
			NormalMin: ptr(40), NormalMax: ptr(100),
			CriticalMin: ptr(20), CriticalMax: ptr(120),
		},
		{
			BiomarkerKey: biomarker.KeyHDL, AgeRange: all, Gender: biomarker.GenderFemale,
			OptimalMin: ptr(65), OptimalMax: ptr(95),
		},
		{
			BiomarkerKey: biomarker.KeyTotalChol, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(150), OptimalMax: ptr(190),
			NormalMin: ptr(125), NormalMax: ptr(200),
			CriticalMin: ptr(100), CriticalMax: ptr(300),
		},
		{
			BiomarkerKey: biomarker.KeyTriglycerides, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(50), OptimalMax: ptr(100),
			NormalMin: ptr(40), NormalMax: ptr(150),
			CriticalMin: ptr(20), CriticalMax: ptr(500),
		},
		{
			BiomarkerKey: biomarker.KeyApoB, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(40), OptimalMax: ptr(80),
			NormalMin: ptr(40), NormalMax: ptr(100),
			CriticalMin: ptr(20), CriticalMax: ptr(150),
		},

		// ===== GLYCEMIC CONTROL =====
		{
			BiomarkerKey: biomarker.KeyGlucose, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(75), OptimalMax: ptr(90),
			NormalMin: ptr(70), NormalMax: ptr(99),
			CriticalMin: ptr(50), CriticalMax: ptr(250),
		},
		{
			BiomarkerKey: biomarker.KeyHbA1c, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(4.6), OptimalMax: ptr(5.3),
			NormalMin: ptr(4.0), NormalMax: ptr(5.6),
			CriticalMin: ptr(3.5), CriticalMax: ptr(9.0),
		},
		{
			BiomarkerKey: biomarker.KeyInsulin, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(2), OptimalMax: ptr(6),
			NormalMin: ptr(2), NormalMax: ptr(20),
			CriticalMin: ptr(1), CriticalMax: ptr(50),
		},

		// ===== THYROID =====
		{
			BiomarkerKey: biomarker.KeyTSH, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(1.0), OptimalMax: ptr(2.5),
			NormalMin: ptr(0.4), NormalMax: ptr(4.5),
			CriticalMin: ptr(0.1), CriticalMax: ptr(10),
		},
		{
			BiomarkerKey: biomarker.KeyTSH, AgeRange: biomarker.AgeSenior, Gender: unisex,
			OptimalMin: ptr(1.0), OptimalMax: ptr(4.0),
		},
		{
			BiomarkerKey: biomarker.KeyFreeT3, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(3.0), OptimalMax: ptr(4.0),
			NormalMin: ptr(2.3), NormalMax: ptr(4.2),
			CriticalMin: ptr(1.5), CriticalMax: ptr(6.0),
		},
		{
			BiomarkerKey: biomarker.KeyFreeT4, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(1.0), OptimalMax: ptr(1.5),
			NormalMin: ptr(0.8), NormalMax: ptr(1.8),
			CriticalMin: ptr(0.4), CriticalMax: ptr(3.0),
		},

		// ===== IRON, VITAMINS, INFLAMMATION =====
		{
			BiomarkerKey: biomarker.KeyFerritin, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(50), OptimalMax: ptr(150),
			NormalMin: ptr(30), NormalMax: ptr(400),
			CriticalMin: ptr(10), CriticalMax: ptr(1000),
		},
		{
			BiomarkerKey: biomarker.KeyFerritin, AgeRange: all, Gender: biomarker.GenderFemale,
			OptimalMin: ptr(40), OptimalMax: ptr(120),
		},
		{
			BiomarkerKey: biomarker.KeyVitaminB12, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(500), OptimalMax: ptr(900),
			NormalMin: ptr(200), NormalMax: ptr(900),
			CriticalMin: ptr(150), CriticalMax: ptr(2000),
		},
		{
			BiomarkerKey: biomarker.KeyCRP, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(0), OptimalMax: ptr(1),
			NormalMin: ptr(0), NormalMax: ptr(3),
			CriticalMax: ptr(10),
		},
		{
			BiomarkerKey: biomarker.KeyMagnesium, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(2.0), OptimalMax: ptr(2.4),
			NormalMin: ptr(1.7), NormalMax: ptr(2.4),
			CriticalMin: ptr(1.0), CriticalMax: ptr(4.0),
		},

		// ===== HEMOGLOBIN (g/dL) =====
		{
			BiomarkerKey: biomarker.KeyHemoglobin, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(14.0), OptimalMax: ptr(16.0),
			NormalMin: ptr(13.2), NormalMax: ptr(16.6),
			CriticalMin: ptr(7.0), CriticalMax: ptr(20.0),
		},
		{
			BiomarkerKey: biomarker.KeyHemoglobin, AgeRange: all, Gender: biomarker.GenderFemale,
			OptimalMin: ptr(12.5), OptimalMax: ptr(14.5),
		},
		{
			BiomarkerKey: biomarker.KeyHemoglobin, AgeRange: biomarker.AgePediatric, Gender: unisex,
			OptimalMin: ptr(11.5), OptimalMax: ptr(14.5),
		},

		// ===== ESTRADIOL (pg/mL) =====
		{
			BiomarkerKey: biomarker.KeyEstradiol, AgeRange: all, Gender: unisex,
			OptimalMin: ptr(20), OptimalMax: ptr(35),
			NormalMin: ptr(10), NormalMax: ptr(40),
			CriticalMin: ptr(5), CriticalMax: ptr(400),
		},
		{
			BiomarkerKey: biomarker.KeyEstradiol, AgeRange: all, Gender: biomarker.GenderFemale,
			OptimalMin: ptr(50), OptimalMax: ptr(250),
		},
	}
}

// SyncReferenceRanges upserts every definition into reference_ranges.
func SyncReferenceRanges(ctx context.Context) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	definitions := GetReferenceRangeDefinitions()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO reference_ranges (
			biomarker_key, age_range, gender, unit,
			optimal_min, optimal_max, normal_min, normal_max, critical_min, critical_max
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (biomarker_key, age_range, gender)
		DO UPDATE SET
			unit = EXCLUDED.unit,
			optimal_min = EXCLUDED.optimal_min,
			optimal_max = EXCLUDED.optimal_max,
			normal_min = EXCLUDED.normal_min,
			normal_max = EXCLUDED.normal_max,
			critical_min = EXCLUDED.critical_min,
			critical_max = EXCLUDED.critical_max,
			updated_at = NOW()
	`

	for _, def := range definitions {
		unit := ""
		if d, ok := biomarker.Lookup(def.BiomarkerKey); ok {
			unit = d.Unit
		}

		_, err := tx.Exec(ctx, query,
			def.BiomarkerKey, string(def.AgeRange), string(def.Gender), unit,
			def.OptimalMin, def.OptimalMax, def.NormalMin, def.NormalMax, def.CriticalMin, def.CriticalMax,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert reference range for %s (%s, %s): %w",
				def.BiomarkerKey, def.AgeRange, def.Gender, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reference ranges: %w", err)
	}

	logger.Info("Reference ranges synced", "count", len(definitions))

	return nil
}

// AssembleReferenceRange folds the rows for one biomarker into a
// ReferenceRange. It returns ErrReferenceRangeNotFound without a base row.
func AssembleReferenceRange(key string, rows []ReferenceRangeDefinition) (*biomarker.ReferenceRange, error) {
	rr := &biomarker.ReferenceRange{BiomarkerKey: key}
	if d, ok := biomarker.Lookup(key); ok {
		rr.Unit = d.Unit
		rr.Adjustment = d.Adjustment
	}

	hasBase := false
	for _, row := range rows {
		if row.BiomarkerKey != key {
			continue
		}

		switch {
		case row.isBase():
			hasBase = true
			rr.OptimalMin, rr.OptimalMax = row.OptimalMin, row.OptimalMax
			rr.NormalMin, rr.NormalMax = row.NormalMin, row.NormalMax
			rr.CriticalMin, rr.CriticalMax = row.CriticalMin, row.CriticalMax
		case row.Gender == biomarker.GenderUnisex:
			if rr.AgeAdjustments == nil {
				rr.AgeAdjustments = map[biomarker.AgeRange]biomarker.Range{}
			}
			rr.AgeAdjustments[row.AgeRange] = biomarker.Range{Min: row.OptimalMin, Max: row.OptimalMax}
		default:
			if rr.GenderAdjustments == nil {
				rr.GenderAdjustments = map[biomarker.Gender]biomarker.Range{}
			}
			rr.GenderAdjustments[row.Gender] = biomarker.Range{Min: row.OptimalMin, Max: row.OptimalMax}
		}
	}

	if !hasBase {
		return nil, fmt.Errorf("%w: %s", biomarker.ErrReferenceRangeNotFound, key)
	}

	return rr, nil
}

// DefaultReferenceRanges returns the built-in definitions as an in-memory
// provider, for use without a database.
func DefaultReferenceRanges() biomarker.StaticProvider {
	byKey := map[string][]ReferenceRangeDefinition{}
	for _, def := range GetReferenceRangeDefinitions() {
		byKey[def.BiomarkerKey] = append(byKey[def.BiomarkerKey], def)
	}

	provider := biomarker.StaticProvider{}
	for key, rows := range byKey {
		rr, err := AssembleReferenceRange(key, rows)
		if err != nil {
			continue
		}
		provider[key] = rr
	}

	return provider
}

// ReferenceRanges serves reference ranges from the database.
type ReferenceRanges struct{}

// GetReferenceRange implements biomarker.RangeProvider.
func (ReferenceRanges) GetReferenceRange(ctx context.Context, key string) (*biomarker.ReferenceRange, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT biomarker_key, age_range, gender,
			optimal_min, optimal_max, normal_min, normal_max, critical_min, critical_max
		FROM reference_ranges
		WHERE biomarker_key = $1
	`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference ranges: %w", err)
	}
	defer rows.Close()

	var defs []ReferenceRangeDefinition
	for rows.Next() {
		var (
			def      ReferenceRangeDefinition
			ageRange string
			gender   string
		)
		if err := rows.Scan(
			&def.BiomarkerKey, &ageRange, &gender,
			&def.OptimalMin, &def.OptimalMax, &def.NormalMin, &def.NormalMax, &def.CriticalMin, &def.CriticalMax,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reference range: %w", err)
		}
		def.AgeRange = biomarker.AgeRange(ageRange)
		def.Gender = biomarker.Gender(gender)
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference ranges: %w", err)
	}

	return AssembleReferenceRange(key, defs)
}
