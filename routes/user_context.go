/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"

	"github.com/humaidq/ennu/db"
)

// UserContextInjector loads session user metadata into templates.
func UserContextInjector() flamego.Handler {
	return func(c flamego.Context, s session.Session, data template.Data) {
		authenticated, _ := s.Get("authenticated").(bool)
		data["IsAuthenticated"] = authenticated
		if !authenticated {
			return
		}

		user, err := resolveSessionUser(c.Request().Context(), s)
		if err != nil {
			logger.Error("Failed to resolve session user", "error", err)
			return
		}
		data["IsAdmin"] = user.IsAdmin
		data["DisplayName"] = user.DisplayName
	}
}

// RequireAdmin blocks access for non-admin users.
func RequireAdmin(s session.Session, c flamego.Context) {
	isAdmin, err := resolveSessionIsAdmin(c.Request().Context(), s)
	if err != nil || !isAdmin {
		var extra []interface{}
		if err != nil {
			extra = append(extra, "error", err)
		}

		if isAPIRequest(c) {
			logAccessDenied(c, s, "not_admin", http.StatusForbidden, "", extra...)
			respondError(c, http.StatusForbidden, "administrator access required")
			return
		}

		logAccessDenied(c, s, "not_admin", http.StatusSeeOther, "/", extra...)
		SetErrorFlash(s, "Access restricted")
		c.Redirect("/", http.StatusSeeOther)
		return
	}
	c.Next()
}

func resolveSessionIsAdmin(ctx context.Context, s session.Session) (bool, error) {
	user, err := resolveSessionUser(ctx, s)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func resolveSessionUser(ctx context.Context, s session.Session) (*db.User, error) {
	userID, ok := sessionUserUUID(s)
	if !ok {
		return nil, errSessionUserMissing
	}

	isAdmin, hasAdmin := s.Get("user_is_admin").(bool)
	displayName, hasName := s.Get("user_display_name").(string)
	if hasAdmin && hasName {
		return &db.User{
			ID:          userID,
			DisplayName: displayName,
			IsAdmin:     isAdmin,
		}, nil
	}

	user, err := lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DisplayName != "" {
		s.Set("user_display_name", user.DisplayName)
	}
	s.Set("user_is_admin", user.IsAdmin)
	return user, nil
}

func getSessionUserID(s session.Session) (string, bool) {
	if val := s.Get("user_id"); val != nil {
		if userID, ok := val.(string); ok && userID != "" {
			return userID, true
		}
	}

	return "", false
}

func sessionUserUUID(s session.Session) (uuid.UUID, bool) {
	raw, ok := getSessionUserID(s)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// subjectUser returns the user a request acts on: the session user, or the
// user named by the user_id parameter when the caller is an administrator.
func subjectUser(c flamego.Context, s session.Session) (uuid.UUID, int, error) {
	self, ok := sessionUserUUID(s)
	if !ok {
		return uuid.Nil, http.StatusUnauthorized, errSessionUserMissing
	}

	raw := strings.TrimSpace(c.Query("user_id"))
	if raw == "" && c.Request().Form != nil {
		raw = strings.TrimSpace(c.Request().Form.Get("user_id"))
	}
	if raw == "" {
		return self, http.StatusOK, nil
	}

	requested, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, http.StatusBadRequest, errInvalidUserID
	}
	if requested == self {
		return self, http.StatusOK, nil
	}

	isAdmin, err := resolveSessionIsAdmin(c.Request().Context(), s)
	if err != nil || !isAdmin {
		return uuid.Nil, http.StatusForbidden, errForeignUser
	}

	return requested, http.StatusOK, nil
}

// requiredUserParam reads a mandatory user_id form or query value.
func requiredUserParam(c flamego.Context) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query("user_id"))
	if raw == "" && c.Request().Form != nil {
		raw = strings.TrimSpace(c.Request().Form.Get("user_id"))
	}
	if raw == "" {
		return uuid.Nil, errUserIDRequired
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errInvalidUserID
	}
	return id, nil
}
