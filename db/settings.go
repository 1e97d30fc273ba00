/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SettingsStore stores site-wide JSON settings. It satisfies
// security.SettingsStore.
type SettingsStore struct{}

// GetSetting returns the raw JSON value for key, or nil when absent.
func (SettingsStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var value []byte
	err := pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return value, nil
}

// SetSetting upserts a JSON value.
func (SettingsStore) SetSetting(ctx context.Context, key string, value []byte) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO settings (key, value)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	return nil
}
