/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/rules"
)

// MetaCentralizedSymptoms is the user meta key holding categorized symptoms.
const MetaCentralizedSymptoms = "ennu_centralized_symptoms"

// LoadSymptoms reads and flattens the user's reported symptoms.
func LoadSymptoms(ctx context.Context, store biomarker.MetaStore, userID uuid.UUID) ([]string, error) {
	raw, err := store.GetUserMeta(ctx, userID, MetaCentralizedSymptoms)
	if err != nil {
		return nil, fmt.Errorf("failed to read symptoms: %w", err)
	}
	return FlattenSymptoms(raw), nil
}

// FlattenSymptoms extracts normalized, unique symptom names. It accepts
// {"by_category": {cat: [...]}}, a bare {cat: [...]} object, or a list.
// Entries may be strings or objects with a "name" field. Categories are
// visited in sorted order so the result is deterministic.
func FlattenSymptoms(raw []byte) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.Warn("Ignoring undecodable symptoms", "error", err)
		return out
	}

	seen := map[string]bool{}
	add := func(name string) {
		name = rules.NormalizeSymptom(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	switch v := doc.(type) {
	case []any:
		collectEntries(v, add)
	case map[string]any:
		categories := v
		if nested, ok := v["by_category"].(map[string]any); ok {
			categories = nested
		}

		names := make([]string, 0, len(categories))
		for cat := range categories {
			names = append(names, cat)
		}
		sort.Strings(names)

		for _, cat := range names {
			if entries, ok := categories[cat].([]any); ok {
				collectEntries(entries, add)
			}
		}
	}

	return out
}

func collectEntries(entries []any, add func(string)) {
	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			add(strings.TrimSpace(e))
		case map[string]any:
			if name, ok := e["name"].(string); ok {
				add(name)
			}
		}
	}
}
