/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/completeness"
)

// Analytics aggregates platform-wide profile and biomarker statistics.
type Analytics struct {
	TotalUsers           int            `json:"total_users"`
	UsersWithBiomarkers  int            `json:"users_with_biomarkers"`
	AverageCompleteness  float64        `json:"average_completeness"`
	AccuracyDistribution map[string]int `json:"accuracy_distribution"`
	ActiveFlags          int            `json:"active_flags"`
	SecurityEvents24h    int            `json:"security_events_24h"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

// GetAnalytics computes the admin dashboard statistics.
func GetAnalytics(ctx context.Context) (*Analytics, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	stats := &Analytics{
		AccuracyDistribution: map[string]int{},
		GeneratedAt:          time.Now().UTC(),
	}

	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	err := pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id)
		FROM user_meta
		WHERE meta_key = $1
			AND jsonb_typeof(meta_value) = 'object'
			AND meta_value <> '{}'::jsonb
	`, biomarker.MetaBiomarkerData).Scan(&stats.UsersWithBiomarkers)
	if err != nil {
		return nil, fmt.Errorf("failed to count users with biomarkers: %w", err)
	}

	var average float64
	err = pool.QueryRow(ctx, `
		SELECT COALESCE(AVG((meta_value->>'overall_percentage')::double precision), 0)
		FROM user_meta
		WHERE meta_key = $1
			AND jsonb_typeof(meta_value->'overall_percentage') = 'number'
	`, completeness.MetaProfileCompleteness).Scan(&average)
	if err != nil {
		return nil, fmt.Errorf("failed to average completeness: %w", err)
	}
	stats.AverageCompleteness = math.Round(average*10) / 10

	rows, err := pool.Query(ctx, `
		SELECT meta_value->>'accuracy_level', COUNT(*)
		FROM user_meta
		WHERE meta_key = $1
			AND jsonb_typeof(meta_value->'accuracy_level') = 'string'
		GROUP BY 1
	`, completeness.MetaProfileCompleteness)
	if err != nil {
		return nil, fmt.Errorf("failed to query accuracy distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			level string
			count int
		)
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan accuracy distribution: %w", err)
		}
		stats.AccuracyDistribution[level] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accuracy distribution: %w", err)
	}

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM user_meta m, jsonb_each(m.meta_value) AS f(id, flag)
		WHERE m.meta_key = $1
			AND jsonb_typeof(m.meta_value) = 'object'
			AND f.flag->>'status' = $2
	`, biomarker.MetaBiomarkerFlags, string(biomarker.FlagActive)).Scan(&stats.ActiveFlags)
	if err != nil {
		return nil, fmt.Errorf("failed to count active flags: %w", err)
	}

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM security_audit_log WHERE created_at > NOW() - INTERVAL '24 hours'
	`).Scan(&stats.SecurityEvents24h)
	if err != nil {
		return nil, fmt.Errorf("failed to count security events: %w", err)
	}

	return stats, nil
}
