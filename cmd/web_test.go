// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flamego/flamego"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/completeness"
	"github.com/humaidq/ennu/db"
	"github.com/humaidq/ennu/rules"
)

func TestConfigureNotFoundHandler(t *testing.T) {
	t.Parallel()

	f := flamego.New()
	configureNotFoundHandler(f)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty 404 body, got %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec = httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("expected JSON envelope, got %q", rec.Body.String())
	}
}

func TestTemplateFuncsRender(t *testing.T) {
	t.Parallel()

	tpl, err := template.New("row").Funcs(templateFuncs()).Parse(
		`{{ biomarkerName .Key }}={{ formatValue .Value }} at {{ formatTime .At }} <span class="{{ accuracyClass .Level }}"></span>`,
	)
	if err != nil {
		t.Fatalf("failed to parse template: %v", err)
	}

	var rendered strings.Builder
	err = tpl.Execute(&rendered, map[string]any{
		"Key":   biomarker.KeyVitaminD,
		"Value": 32.5,
		"At":    time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC),
		"Level": completeness.AccuracyHigh,
	})
	if err != nil {
		t.Fatalf("failed to execute template: %v", err)
	}

	want := `Vitamin D (25-OH)=32.5 at 2025-04-01 09:30 UTC <span class="accuracy-good"></span>`
	if got := rendered.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTemplateFuncEdgeCases(t *testing.T) {
	t.Parallel()

	if got := formatTime(time.Time{}); got != "never" {
		t.Fatalf("expected never for zero time, got %q", got)
	}

	if got := biomarkerName("unlisted_marker"); got != "unlisted_marker" {
		t.Fatalf("expected key fallback, got %q", got)
	}

	tests := map[completeness.AccuracyLevel]string{
		completeness.AccuracyExcellent: "accuracy-good",
		completeness.AccuracyMedium:    "accuracy-fair",
		completeness.AccuracyModerate:  "accuracy-fair",
		completeness.AccuracyLow:       "accuracy-poor",
	}
	for level, want := range tests {
		if got := accuracyClass(level); got != want {
			t.Fatalf("accuracyClass(%q) = %q, want %q", level, got, want)
		}
	}
}

func TestReportRulesDefaultsCovered(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	missing := reportRules(&out, rules.MustDefault(), db.DefaultReferenceRanges())
	if len(missing) != 0 {
		t.Fatalf("expected every recommended biomarker to have a range, missing %v", missing)
	}

	if !strings.Contains(out.String(), "Rules version 1") {
		t.Fatalf("expected version line, got %q", out.String())
	}
}

func TestReportRulesListsMissingRanges(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	missing := reportRules(&out, rules.MustDefault(), biomarker.StaticProvider{})
	if len(missing) == 0 {
		t.Fatal("expected missing ranges with an empty provider")
	}

	for i := 1; i < len(missing); i++ {
		if missing[i-1] >= missing[i] {
			t.Fatalf("expected sorted unique keys, got %v", missing)
		}
	}

	if !strings.Contains(out.String(), "missing reference range: "+biomarker.KeyVitaminD) {
		t.Fatalf("expected vitamin D listed as missing, got %q", out.String())
	}
}

func TestResolveUserRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "sam"} {
		if _, err := resolveUser(context.Background(), raw); !errors.Is(err, errInvalidUser) {
			t.Fatalf("resolveUser(%q) error = %v, want errInvalidUser", raw, err)
		}
	}
}

func TestCommandsRequireDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	tests := [][]string{
		{"ennu", "migrate", "status"},
		{"ennu", "user", "list"},
		{"ennu", "import-csv", "--user", "sam@example.com", "--file", "labs.csv"},
	}

	for _, args := range tests {
		app := &cli.Command{
			Name:     "ennu",
			Commands: []*cli.Command{CmdMigrate, CmdUser, CmdImportCSV},
		}
		if err := app.Run(context.Background(), args); !errors.Is(err, errDatabaseURLRequired) {
			t.Fatalf("%v: expected errDatabaseURLRequired, got %v", args[1:], err)
		}
	}
}

func TestStartRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CSRF_SECRET", "")

	app := &cli.Command{Name: "ennu", Commands: []*cli.Command{CmdStart}}
	if err := app.Run(context.Background(), []string{"ennu", "start"}); !errors.Is(err, errDatabaseURLRequired) {
		t.Fatalf("expected errDatabaseURLRequired, got %v", err)
	}
}
