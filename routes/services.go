/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/cache"
	"github.com/humaidq/ennu/completeness"
	"github.com/humaidq/ennu/db"
	"github.com/humaidq/ennu/recommend"
	"github.com/humaidq/ennu/rules"
	"github.com/humaidq/ennu/security"
)

// Services holds the engines shared by every handler. Build one at startup
// and map it into the router with f.Map.
type Services struct {
	Rules        *rules.Rules
	Meta         completeness.Store
	Ranges       biomarker.RangeProvider
	Targets      *biomarker.TargetService
	Completeness *completeness.Tracker
	Guard        *security.Guard
	Settings     security.SettingsStore
	Cache        cache.Cache
	Now          func() time.Time
}

// NewServices wires the engines around a metadata store and range provider.
// A nil cache disables caching.
func NewServices(r *rules.Rules, meta completeness.Store, ranges biomarker.RangeProvider, guard *security.Guard, settings security.SettingsStore, c cache.Cache) *Services {
	if c == nil {
		c = cache.Nop{}
	}

	return &Services{
		Rules:        r,
		Meta:         meta,
		Ranges:       ranges,
		Targets:      biomarker.NewTargetService(meta, ranges),
		Completeness: completeness.NewTracker(meta, r, c),
		Guard:        guard,
		Settings:     settings,
		Cache:        c,
		Now:          time.Now,
	}
}

func (s *Services) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Services) recommendations(ctx context.Context, userID uuid.UUID) ([]recommend.Recommendation, error) {
	return recommend.NewEngine(s.Meta, s.Rules, userID).GetUpdatedRecommendations(ctx)
}

// Database operations used by handlers, replaceable in tests.
var (
	authenticateUser = db.Authenticate
	lookupUser       = db.GetUserByID
	loadAnalytics    = db.GetAnalytics
	listDocuments    = db.ListDocuments
	upsertDocument   = db.UpsertDocument
	listAuditEntries = db.ListAuditEntries
	pingDatabase     = defaultPingDatabase
)

func defaultPingDatabase(ctx context.Context) error {
	pool := db.GetPool()
	if pool == nil {
		return db.ErrDatabaseConnectionNotInitialized
	}
	return pool.Ping(ctx)
}
