/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
)

// apiResponse is the envelope every JSON endpoint returns.
type apiResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type messageData struct {
	Message string `json:"message"`
}

func writeJSON(c flamego.Context, status int, payload apiResponse) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)
	if err := json.NewEncoder(c.ResponseWriter()).Encode(payload); err != nil {
		logger.Warn("Failed to write JSON response", "path", c.Request().URL.Path, "error", err)
	}
}

func respondOK(c flamego.Context, data any) {
	writeJSON(c, http.StatusOK, apiResponse{Success: true, Data: data})
}

func respondError(c flamego.Context, status int, message string) {
	writeJSON(c, status, apiResponse{Success: false, Data: messageData{Message: message}})
}

func isAPIRequest(c flamego.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
