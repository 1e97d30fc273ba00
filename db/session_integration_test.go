// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"net/http"
	"testing"
	"time"

	"github.com/flamego/session"
)

func TestPostgresSessionIniterDefaults(t *testing.T) {
	initer := PostgresSessionIniter()
	store, err := initer(testContext())
	if err != nil {
		t.Fatalf("PostgresSessionIniter failed: %v", err)
	}

	pgStore, ok := store.(*PostgresSessionStore)
	if !ok {
		t.Fatalf("expected PostgresSessionStore")
	}
	if pgStore.lifetime != 7*24*time.Hour {
		t.Fatalf("expected default lifetime, got %v", pgStore.lifetime)
	}
	if pgStore.encoder == nil || pgStore.decoder == nil {
		t.Fatalf("expected encoder and decoder to be set")
	}
}

func TestPostgresSessionIniterInvalidConfig(t *testing.T) {
	initer := PostgresSessionIniter()
	if _, err := initer(testContext(), "invalid"); err == nil {
		t.Fatalf("expected invalid config error")
	}
}

func TestPostgresSessionStoreLifecycle(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	store, err := PostgresSessionIniter()(ctx, PostgresSessionConfig{Lifetime: time.Hour})
	if err != nil {
		t.Fatalf("PostgresSessionIniter failed: %v", err)
	}
	pgStore := store.(*PostgresSessionStore)

	noopWriter := func(_ http.ResponseWriter, _ *http.Request, _ string) {}

	sess1 := session.NewBaseSession("sess1", session.GobEncoder, noopWriter)
	sess1.Set("authenticated", true)
	sess1.Set("user_id", "user-1")

	if err := pgStore.Save(ctx, sess1); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !pgStore.Exist(ctx, "sess1") {
		t.Fatalf("expected session to exist")
	}

	readSess, err := pgStore.Read(ctx, "sess1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if readSess.Get("user_id") != "user-1" {
		t.Fatalf("expected user_id to match")
	}

	if err := pgStore.Touch(ctx, "sess1"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	sess2 := session.NewBaseSession("sess2", session.GobEncoder, noopWriter)
	sess2.Set("user_id", "user-2")
	if err := pgStore.Save(ctx, sess2); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	deleted, err := pgStore.DestroyUserSessions(ctx, "user-1")
	if err != nil {
		t.Fatalf("DestroyUserSessions failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 session deleted, got %d", deleted)
	}
	if pgStore.Exist(ctx, "sess1") {
		t.Fatalf("expected sess1 to be removed")
	}
	if !pgStore.Exist(ctx, "sess2") {
		t.Fatalf("expected sess2 to remain")
	}

	fresh, err := pgStore.Read(ctx, "missing")
	if err != nil {
		t.Fatalf("Read of missing session failed: %v", err)
	}
	if fresh.Get("user_id") != nil {
		t.Fatalf("expected empty session")
	}

	if err := pgStore.GC(ctx); err != nil {
		t.Fatalf("GC failed: %v", err)
	}
}
