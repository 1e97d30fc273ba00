/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"runtime"
	"strconv"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/completeness"
	"github.com/humaidq/ennu/db"
	"github.com/humaidq/ennu/utils"
)

const dashboardAuditLimit = 20

// docFixResult reports the outcome for one documentation page.
type docFixResult struct {
	Slug   string             `json:"slug"`
	Title  string             `json:"title"`
	Report utils.DocFixReport `json:"report"`
	Saved  bool               `json:"saved"`
}

// FixDocumentation rewrites every stored documentation page, renaming
// deprecated biomarker names and stripping scripts. dry_run=1 reports the
// edits without saving.
func FixDocumentation(c flamego.Context, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}
	dryRun := parseBool(trimmedFormValue(c, "dry_run"))

	ctx := c.Request().Context()
	docs, err := listDocuments(ctx)
	if err != nil {
		logger.Error("Failed to list documentation", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to list documentation")
		return
	}

	results := make([]docFixResult, 0, len(docs))
	changed := 0
	for _, doc := range docs {
		fixed, report, err := utils.FixDocumentationHTML(doc.BodyHTML, svc.Rules.Documentation.Replacements)
		if err != nil {
			logger.Error("Failed to fix documentation", "slug", doc.Slug, "error", err)
			respondError(c, http.StatusInternalServerError, "failed to fix documentation")
			return
		}

		result := docFixResult{Slug: doc.Slug, Title: doc.Title, Report: report}
		if report.Changed() {
			changed++
			if !dryRun {
				doc.BodyHTML = fixed
				if err := upsertDocument(ctx, doc); err != nil {
					logger.Error("Failed to save documentation", "slug", doc.Slug, "error", err)
					respondError(c, http.StatusInternalServerError, "failed to save documentation")
					return
				}
				result.Saved = true
			}
		}
		results = append(results, result)
	}

	logger.Info("Documentation fixed", "documents", len(docs), "changed", changed, "dry_run", dryRun)

	respondOK(c, map[string]any{
		"documents": results,
		"changed":   changed,
		"dry_run":   dryRun,
	})
}

// Analytics returns aggregate platform statistics.
func Analytics(c flamego.Context) {
	stats, err := loadAnalytics(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load analytics", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load analytics")
		return
	}

	respondOK(c, stats)
}

// compatCheck is one line of the compatibility report.
type compatCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// Compat checks that the runtime, database, rules and reference ranges are
// usable together.
func Compat(c flamego.Context, svc *Services) {
	checks := compatChecks(c, svc)

	compatible := true
	for _, check := range checks {
		if !check.OK {
			compatible = false
			break
		}
	}

	respondOK(c, map[string]any{
		"compatible": compatible,
		"checks":     checks,
	})
}

func compatChecks(c flamego.Context, svc *Services) []compatCheck {
	ctx := c.Request().Context()
	checks := []compatCheck{
		{Name: "runtime", OK: true, Detail: runtime.Version()},
	}

	if err := pingDatabase(ctx); err != nil {
		checks = append(checks, compatCheck{Name: "database", Detail: err.Error()})
	} else {
		checks = append(checks, compatCheck{Name: "database", OK: true, Detail: "reachable"})
	}

	if err := svc.Rules.Validate(); err != nil {
		checks = append(checks, compatCheck{Name: "rules", Detail: err.Error()})
	} else {
		checks = append(checks, compatCheck{Name: "rules", OK: true, Detail: "valid"})
	}

	missing := 0
	var lookupErr error
	for _, def := range biomarker.Definitions() {
		if biomarker.IsDerived(def.Key) {
			continue
		}
		_, err := svc.Ranges.GetReferenceRange(ctx, def.Key)
		if errors.Is(err, biomarker.ErrReferenceRangeNotFound) {
			missing++
			continue
		}
		if err != nil {
			lookupErr = err
			break
		}
	}

	switch {
	case lookupErr != nil:
		checks = append(checks, compatCheck{Name: "reference_ranges", Detail: lookupErr.Error()})
	case missing > 0:
		checks = append(checks, compatCheck{Name: "reference_ranges", Detail: pluralize(missing, "lab biomarker lacks", "lab biomarkers lack") + " a reference range"})
	default:
		checks = append(checks, compatCheck{Name: "reference_ranges", OK: true, Detail: "complete"})
	}

	return checks
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}

// AdminDashboard renders the administrator overview page.
func AdminDashboard(c flamego.Context, svc *Services, t template.Template, data template.Data) {
	ctx := c.Request().Context()

	stats, err := loadAnalytics(ctx)
	if err != nil {
		logger.Error("Failed to load analytics", "error", err)
		data["Error"] = "Failed to load analytics"
	} else {
		data["Analytics"] = stats
	}

	entries, err := listAuditEntries(ctx, dashboardAuditLimit)
	if err != nil {
		logger.Error("Failed to load audit log", "error", err)
		data["AuditError"] = "Failed to load security events"
		entries = []db.AuditEntry{}
	}

	data["AuditEntries"] = entries
	data["BlockedIPs"] = svc.Guard.BlockedIPs()
	data["RateLimit"] = svc.Guard.Config()
	data["Checks"] = compatChecks(c, svc)
	data["PageTitle"] = "Administration"
	data["IsAdminPage"] = true

	t.HTML(http.StatusOK, "admin")
}

// Home renders the signed-in user's completeness and recommendations.
func Home(c flamego.Context, s session.Session, svc *Services, t template.Template, data template.Data) {
	userID, ok := sessionUserUUID(s)
	if !ok {
		c.Redirect("/login", http.StatusSeeOther)
		return
	}

	ctx := c.Request().Context()

	record, err := svc.Completeness.ForDisplay(ctx, userID)
	if err != nil && !errors.Is(err, completeness.ErrPersistFailed) {
		logger.Error("Failed to load completeness", "user_id", userID, "error", err)
		data["Error"] = "Failed to load your profile"
	}
	data["Completeness"] = record

	recs, err := svc.recommendations(ctx, userID)
	if err != nil {
		logger.Error("Failed to build recommendations", "user_id", userID, "error", err)
		data["Error"] = "Failed to load recommendations"
	}
	data["Recommendations"] = recs

	readings, err := biomarker.LoadReadings(ctx, svc.Meta, userID)
	if err != nil {
		logger.Error("Failed to load biomarkers", "user_id", userID, "error", err)
	}
	data["Readings"] = readings
	data["PageTitle"] = "Your health profile"

	t.HTML(http.StatusOK, "home")
}
