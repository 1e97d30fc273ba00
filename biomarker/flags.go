/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FlagStatus is the lifecycle state of a flag.
type FlagStatus string

// FlagStatus values.
const (
	FlagActive  FlagStatus = "active"
	FlagRemoved FlagStatus = "removed"
)

// Flag marks a biomarker for clinical attention.
type Flag struct {
	ID           string     `json:"id"`
	BiomarkerKey string     `json:"biomarker_key"`
	Reason       string     `json:"reason"`
	Status       FlagStatus `json:"status"`
	FlaggedBy    uuid.UUID  `json:"flagged_by"`
	FlaggedAt    time.Time  `json:"flagged_at"`
	RemovedBy    *uuid.UUID `json:"removed_by,omitempty"`
	RemovedAt    *time.Time `json:"removed_at,omitempty"`
}

func loadFlags(ctx context.Context, store MetaStore, userID uuid.UUID) (map[string]Flag, error) {
	flags := map[string]Flag{}
	if _, err := getJSON(ctx, store, userID, MetaBiomarkerFlags, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}

// FlagBiomarker adds an active flag for key.
func FlagBiomarker(ctx context.Context, store MetaStore, userID uuid.UUID, key, reason string, flaggedBy uuid.UUID) (Flag, error) {
	canonical, ok := CanonicalKey(key)
	if !ok {
		return Flag{}, fmt.Errorf("%w: %q", ErrUnknownBiomarker, key)
	}

	flags, err := loadFlags(ctx, store, userID)
	if err != nil {
		return Flag{}, err
	}

	flag := Flag{
		ID:           uuid.NewString(),
		BiomarkerKey: canonical,
		Reason:       reason,
		Status:       FlagActive,
		FlaggedBy:    flaggedBy,
		FlaggedAt:    time.Now().UTC(),
	}
	flags[flag.ID] = flag

	if err := setJSON(ctx, store, userID, MetaBiomarkerFlags, flags); err != nil {
		return Flag{}, err
	}

	logger.Info("Biomarker flagged", "user_id", userID, "biomarker", canonical, "flag_id", flag.ID)

	return flag, nil
}

// UnflagBiomarker marks a flag as removed. The flag is kept for audit.
func UnflagBiomarker(ctx context.Context, store MetaStore, userID uuid.UUID, flagID string, removedBy uuid.UUID) (Flag, error) {
	flags, err := loadFlags(ctx, store, userID)
	if err != nil {
		return Flag{}, err
	}

	flag, ok := flags[flagID]
	if !ok {
		return Flag{}, ErrFlagNotFound
	}

	now := time.Now().UTC()
	flag.Status = FlagRemoved
	flag.RemovedBy = &removedBy
	flag.RemovedAt = &now
	flags[flagID] = flag

	if err := setJSON(ctx, store, userID, MetaBiomarkerFlags, flags); err != nil {
		return Flag{}, err
	}

	logger.Info("Biomarker unflagged", "user_id", userID, "biomarker", flag.BiomarkerKey, "flag_id", flagID)

	return flag, nil
}

// ListFlags returns the user's flags, newest first.
func ListFlags(ctx context.Context, store MetaStore, userID uuid.UUID, includeRemoved bool) ([]Flag, error) {
	flags, err := loadFlags(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Flag, 0, len(flags))
	for _, f := range flags {
		if f.Status == FlagActive || includeRemoved {
			out = append(out, f)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FlaggedAt.Equal(out[j].FlaggedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FlaggedAt.After(out[j].FlaggedAt)
	})

	return out, nil
}
