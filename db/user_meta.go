/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserMetaStore stores per-user JSON documents in user_meta. It satisfies
// biomarker.MetaStore and completeness.Store.
type UserMetaStore struct{}

// GetUserMeta returns the raw JSON value for key, or nil when absent.
func (UserMetaStore) GetUserMeta(ctx context.Context, userID uuid.UUID, key string) ([]byte, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var value []byte
	err := pool.QueryRow(ctx,
		`SELECT meta_value FROM user_meta WHERE user_id = $1 AND meta_key = $2`,
		userID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user meta %s: %w", key, err)
	}

	return value, nil
}

// GetAllUserMeta returns every meta value for the user keyed by meta key.
func (UserMetaStore) GetAllUserMeta(ctx context.Context, userID uuid.UUID) (map[string][]byte, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		`SELECT meta_key, meta_value FROM user_meta WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user meta: %w", err)
	}
	defer rows.Close()

	meta := map[string][]byte{}
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan user meta: %w", err)
		}
		meta[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user meta: %w", err)
	}

	return meta, nil
}

// SetUserMeta upserts a JSON value. Concurrent writers are last-writer-wins.
func (UserMetaStore) SetUserMeta(ctx context.Context, userID uuid.UUID, key string, value []byte) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}
	if strings.TrimSpace(key) == "" {
		return ErrMetaKeyRequired
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO user_meta (user_id, meta_key, meta_value)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (user_id, meta_key)
		DO UPDATE SET meta_value = EXCLUDED.meta_value, updated_at = NOW()
	`, userID, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to set user meta %s: %w", key, err)
	}

	return nil
}

// DeleteUserMeta removes key for the user.
func (UserMetaStore) DeleteUserMeta(ctx context.Context, userID uuid.UUID, key string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if _, err := pool.Exec(ctx, `DELETE FROM user_meta WHERE user_id = $1 AND meta_key = $2`, userID, key); err != nil {
		return fmt.Errorf("failed to delete user meta %s: %w", key, err)
	}

	return nil
}
