/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/ennu/db"
	"github.com/humaidq/ennu/security"
)

// LoginForm renders the login page
func LoginForm(c flamego.Context, t template.Template, data template.Data) {
	data["HeaderOnly"] = true
	data["PageTitle"] = "Sign in"
	t.HTML(http.StatusOK, "login")
}

// Login checks the submitted credentials and starts an authenticated session
func Login(c flamego.Context, s session.Session, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/login", http.StatusSeeOther)
		return
	}

	email := db.NormalizeEmail(c.Request().Form.Get("email"))
	password := c.Request().Form.Get("password")
	if email == "" || password == "" {
		SetErrorFlash(s, "Email and password are required")
		c.Redirect("/login", http.StatusSeeOther)
		return
	}

	user, err := authenticateUser(c.Request().Context(), email, password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			svc.Guard.Audit(c.Request().Context(), security.Event{
				Type:   security.EventLoginFailed,
				IP:     clientIP(c),
				Path:   c.Request().URL.Path,
				Detail: "email=" + email,
			})
			SetErrorFlash(s, "Invalid email or password")
		} else {
			logger.Error("Failed to authenticate user", "error", err)
			SetErrorFlash(s, "Sign in is unavailable, try again later")
		}
		c.Redirect("/login", http.StatusSeeOther)
		return
	}

	if err := s.RegenerateID(c.ResponseWriter(), c.Request().Request); err != nil {
		logger.Warn("Failed to regenerate session ID", "error", err)
	}

	s.Set("authenticated", true)
	s.Set("user_id", user.ID.String())
	s.Set("user_display_name", user.DisplayName)
	s.Set("user_is_admin", user.IsAdmin)

	logger.Info("User signed in", "user_id", user.ID, "admin", user.IsAdmin)

	if user.IsAdmin {
		c.Redirect("/admin", http.StatusSeeOther)
		return
	}
	c.Redirect("/", http.StatusSeeOther)
}

// Logout handles logout request
func Logout(s session.Session, c flamego.Context) {
	s.Delete("authenticated")
	s.Delete("user_id")
	s.Delete("user_display_name")
	s.Delete("user_is_admin")
	SetSuccessFlash(s, "Signed out")
	c.Redirect("/login", http.StatusSeeOther)
}

// RequireAuth is a middleware that checks if user is authenticated
func RequireAuth(s session.Session, c flamego.Context) {
	authenticated, ok := s.Get("authenticated").(bool)
	if !ok || !authenticated {
		if isAPIRequest(c) {
			logAccessDenied(c, s, "unauthenticated", http.StatusUnauthorized, "")
			respondError(c, http.StatusUnauthorized, "authentication required")
			return
		}
		logAccessDenied(c, s, "unauthenticated", http.StatusSeeOther, "/login")
		c.Redirect("/login", http.StatusSeeOther)
		return
	}
	c.Next()
}

func trimmedFormValue(c flamego.Context, name string) string {
	return strings.TrimSpace(c.Request().Form.Get(name))
}
