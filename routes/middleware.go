/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
)

// CSRFInjector automatically injects CSRF token into template data for all routes
func CSRFInjector() flamego.Handler {
	return func(x csrf.CSRF, data template.Data) {
		data["csrf_token"] = x.Token()
	}
}

// FlashInjector exposes the pending flash message to templates.
func FlashInjector() flamego.Handler {
	return func(flash session.Flash, data template.Data) {
		if msg, ok := flash.(FlashMessage); ok {
			data["Flash"] = msg
		}
	}
}

// NoCacheHeaders disables caching for all page responses and blocks indexing.
func NoCacheHeaders() flamego.Handler {
	return func(c flamego.Context) {
		header := c.ResponseWriter().Header()
		header.Set("X-Robots-Tag", "noindex, nofollow, noarchive, nosnippet")

		if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodHead {
			header.Set("Cache-Control", "no-store, max-age=0")
			header.Set("Pragma", "no-cache")
			header.Set("Expires", "0")
		}

		c.Next()
	}
}

// APICSRF validates the CSRF token on API writes and answers with the JSON
// envelope instead of the default plain-text error.
func APICSRF(c flamego.Context, x csrf.CSRF, s session.Session) {
	if c.Request().Method != http.MethodPost {
		c.Next()
		return
	}

	token := c.Request().Header.Get("X-CSRF-Token")
	if token == "" {
		token = c.Request().FormValue("_csrf")
	}

	if !x.ValidToken(token) {
		logAccessDenied(c, s, "invalid_csrf", http.StatusForbidden, "")
		respondError(c, http.StatusForbidden, "invalid or missing nonce")
		return
	}
	c.Next()
}
