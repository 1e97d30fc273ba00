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

// ListDocuments returns all documentation pages ordered by slug.
func ListDocuments(ctx context.Context) ([]Document, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `SELECT slug, title, body_html, updated_at FROM documentation ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.Slug, &doc.Title, &doc.BodyHTML, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// GetDocument returns a documentation page by slug.
func GetDocument(ctx context.Context, slug string) (*Document, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var doc Document
	err := pool.QueryRow(ctx,
		`SELECT slug, title, body_html, updated_at FROM documentation WHERE slug = $1`,
		slug,
	).Scan(&doc.Slug, &doc.Title, &doc.BodyHTML, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// UpsertDocument creates or replaces a documentation page.
func UpsertDocument(ctx context.Context, doc Document) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO documentation (slug, title, body_html)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug)
		DO UPDATE SET title = EXCLUDED.title, body_html = EXCLUDED.body_html, updated_at = NOW()
	`, doc.Slug, doc.Title, doc.BodyHTML)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.Slug, err)
	}

	return nil
}
