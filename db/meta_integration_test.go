// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/completeness"
	"github.com/humaidq/ennu/rules"
	"github.com/humaidq/ennu/security"
)

func TestUserMetaStore(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()
	user := mustCreateUser(t, "meta@example.com", "Meta")
	store := UserMetaStore{}

	value, err := store.GetUserMeta(ctx, user.ID, "missing")
	if err != nil || value != nil {
		t.Fatalf("expected nil value for missing key, got %q, %v", value, err)
	}

	if err := store.SetUserMeta(ctx, user.ID, " ", []byte(`1`)); !errors.Is(err, ErrMetaKeyRequired) {
		t.Fatalf("expected ErrMetaKeyRequired, got %v", err)
	}

	if err := store.SetUserMeta(ctx, user.ID, biomarker.MetaGender, []byte(`"female"`)); err != nil {
		t.Fatalf("SetUserMeta failed: %v", err)
	}
	if err := store.SetUserMeta(ctx, user.ID, biomarker.MetaGender, []byte(`"male"`)); err != nil {
		t.Fatalf("SetUserMeta overwrite failed: %v", err)
	}

	var gender string
	raw, err := store.GetUserMeta(ctx, user.ID, biomarker.MetaGender)
	if err != nil {
		t.Fatalf("GetUserMeta failed: %v", err)
	}
	if err := json.Unmarshal(raw, &gender); err != nil || gender != "male" {
		t.Fatalf("expected last write to win, got %q (%v)", gender, err)
	}

	all, err := store.GetAllUserMeta(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetAllUserMeta failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 meta entry, got %d", len(all))
	}

	if err := store.DeleteUserMeta(ctx, user.ID, biomarker.MetaGender); err != nil {
		t.Fatalf("DeleteUserMeta failed: %v", err)
	}
}

func TestBiomarkerPipelineOnPostgres(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()
	user := mustCreateUser(t, "pipeline@example.com", "Pipeline")
	store := UserMetaStore{}

	measured := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := biomarker.SaveReading(ctx, store, user.ID, biomarker.Reading{
		Key: biomarker.KeyVitaminD, Value: 25, MeasuredAt: measured,
	}, false); err != nil {
		t.Fatalf("SaveReading failed: %v", err)
	}
	if err := store.SetUserMeta(ctx, user.ID, biomarker.MetaDateOfBirth, []byte(`"1985-03-10"`)); err != nil {
		t.Fatalf("failed to set dob: %v", err)
	}
	if err := store.SetUserMeta(ctx, user.ID, biomarker.MetaGender, []byte(`"male"`)); err != nil {
		t.Fatalf("failed to set gender: %v", err)
	}

	service := biomarker.NewTargetService(store, ReferenceRanges{})
	targets, err := service.GenerateAllTargetsForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GenerateAllTargetsForUser failed: %v", err)
	}
	if !targets[biomarker.KeyVitaminD].Valid() {
		t.Fatalf("expected a vitamin D target, got %+v", targets)
	}

	tracker := completeness.NewTracker(store, rules.MustDefault(), nil)
	record, err := tracker.Calculate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if record.OverallPercentage <= 0 {
		t.Fatalf("expected partial completeness, got %d", record.OverallPercentage)
	}

	stats, err := GetAnalytics(ctx)
	if err != nil {
		t.Fatalf("GetAnalytics failed: %v", err)
	}
	if stats.TotalUsers != 1 || stats.UsersWithBiomarkers != 1 {
		t.Fatalf("unexpected analytics %+v", stats)
	}
	if stats.AccuracyDistribution[string(record.AccuracyLevel)] != 1 {
		t.Fatalf("expected accuracy distribution for %s", record.AccuracyLevel)
	}
}

func TestSettingsStoreAndGuard(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()
	store := SettingsStore{}

	value, err := store.GetSetting(ctx, security.SettingBlockedIPs)
	if err != nil || value != nil {
		t.Fatalf("expected missing setting, got %q, %v", value, err)
	}

	guard := security.NewGuard(security.Config{RequestsPerMinute: 30, Burst: 3}, AuditLog{})
	if err := guard.Block("203.0.113.7"); err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	if err := guard.Save(ctx, store); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := security.NewGuard(security.DefaultConfig(), nil)
	if err := reloaded.Load(ctx, store); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reloaded.IsBlocked("203.0.113.7") || reloaded.Config().Burst != 3 {
		t.Fatalf("expected persisted guard state")
	}

	guard.Audit(ctx, security.Event{Type: security.EventBlockedIP, IP: "203.0.113.7", Path: "/"})

	entries, err := ListAuditEntries(ctx, 10)
	if err != nil {
		t.Fatalf("ListAuditEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].EventType != string(security.EventBlockedIP) {
		t.Fatalf("unexpected audit entries %+v", entries)
	}
}

func TestDocuments(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	if _, err := GetDocument(ctx, "missing"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}

	doc := Document{Slug: "vitamin-d", Title: "Vitamin D", BodyHTML: "<p>Vitamin D3 Level</p>"}
	if err := UpsertDocument(ctx, doc); err != nil {
		t.Fatalf("UpsertDocument failed: %v", err)
	}

	doc.BodyHTML = "<p>Vitamin D (25-OH)</p>"
	if err := UpsertDocument(ctx, doc); err != nil {
		t.Fatalf("UpsertDocument update failed: %v", err)
	}

	docs, err := ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 1 || docs[0].BodyHTML != doc.BodyHTML {
		t.Fatalf("unexpected documents %+v", docs)
	}
}
