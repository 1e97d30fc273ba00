/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
)

// Mount registers every page and API route on f. The caller maps a
// *Services, a session and a CSRF provider before these handlers run.
func Mount(f *flamego.Flame) {
	f.Group("", func() {
		f.Get("/login", LoginForm)
		f.Post("/login", csrf.Validate, Login)
		f.Get("/logout", Logout)

		f.Group("", func() {
			f.Get("/", Home)
			f.Get("/admin", RequireAdmin, AdminDashboard)

			f.Group("/api", func() {
				f.Get("/nonce", Nonce)

				f.Get("/biomarkers", ListBiomarkers)
				f.Post("/biomarkers/sync", SyncBiomarkers)
				f.Post("/biomarkers/save", SaveBiomarker)
				f.Post("/biomarkers/import", ImportBiomarkers)
				f.Get("/biomarkers/flags", ListFlags)
				f.Post("/biomarkers/flag", RequireAdmin, FlagBiomarker)
				f.Post("/biomarkers/unflag", RequireAdmin, UnflagBiomarker)
				f.Get("/biomarkers/{key}/history", BiomarkerHistory)
				f.Get("/biomarkers/{key}/chart", BiomarkerChart)

				f.Get("/targets", ListTargets)
				f.Post("/targets/calculate", CalculateTarget)

				f.Get("/completeness", GetCompleteness)
				f.Post("/completeness/recalculate", RecalculateCompleteness)

				f.Get("/recommendations", GetRecommendations)

				f.Get("/compat", RequireAdmin, Compat)

				f.Group("/admin", func() {
					f.Post("/biomarkers/import", AdminImportBiomarkers)
					f.Post("/docs/fix", FixDocumentation)
					f.Get("/analytics", Analytics)
					f.Get("/security", SecurityStatus)
					f.Post("/security/block", BlockIP)
					f.Post("/security/unblock", UnblockIP)
					f.Post("/security/rate-limit", UpdateRateLimit)
				}, RequireAdmin)
			}, APICSRF)
		}, RequireAuth)
	}, SecurityGuard)
}
