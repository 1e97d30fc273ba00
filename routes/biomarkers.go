/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/google/uuid"

	"github.com/humaidq/ennu/biomarker"
)

// Largest accepted CSV upload.
const maxImportBytes = 2 << 20

// Nonce returns the CSRF token clients must send with every write.
func Nonce(c flamego.Context, x csrf.CSRF) {
	respondOK(c, map[string]string{"nonce": x.Token()})
}

// SyncBiomarkers derives weight, height, BMI and age readings from the
// profile of the session user, or of user_id for administrators.
func SyncBiomarkers(c flamego.Context, s session.Session, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	ctx := c.Request().Context()
	result, err := biomarker.AutoSync(ctx, svc.Meta, userID, svc.now())
	if err != nil {
		if errors.Is(err, biomarker.ErrNoProfileData) {
			respondError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.Error("Failed to sync biomarkers", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to sync biomarkers")
		return
	}

	svc.Completeness.Invalidate(ctx, userID)

	respondOK(c, result)
}

// SaveBiomarker stores a single reading for the session user.
func SaveBiomarker(c flamego.Context, s session.Session, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	reading, err := readingFromForm(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	overwrite := parseBool(trimmedFormValue(c, "overwrite"))

	ctx := c.Request().Context()
	saved, err := biomarker.SaveReading(ctx, svc.Meta, userID, reading, overwrite)
	switch {
	case errors.Is(err, biomarker.ErrReadingExists):
		respondError(c, http.StatusConflict, "a reading already exists for "+saved.Key+", set overwrite to replace it")
		return
	case errors.Is(err, biomarker.ErrReadingOlder):
		respondError(c, http.StatusConflict, "a newer reading is already stored for "+saved.Key)
		return
	case errors.Is(err, biomarker.ErrUnknownBiomarker), errors.Is(err, biomarker.ErrInvalidReading):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Error("Failed to save biomarker", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to save biomarker")
		return
	}

	svc.Completeness.Invalidate(ctx, userID)

	respondOK(c, saved)
}

func readingFromForm(c flamego.Context) (biomarker.Reading, error) {
	key := trimmedFormValue(c, "biomarker")
	if key == "" {
		return biomarker.Reading{}, errMissingBiomarker
	}

	value, err := strconv.ParseFloat(trimmedFormValue(c, "value"), 64)
	if err != nil {
		return biomarker.Reading{}, errInvalidValue
	}

	reading := biomarker.Reading{
		Key:    key,
		Value:  value,
		Unit:   trimmedFormValue(c, "unit"),
		Source: biomarker.SourceManual,
	}

	if raw := trimmedFormValue(c, "date"); raw != "" {
		measured, err := time.Parse(biomarker.DateLayout, raw)
		if err != nil {
			return biomarker.Reading{}, errInvalidDate
		}
		reading.MeasuredAt = measured
	}

	return reading, nil
}

// ListBiomarkers returns the latest reading per biomarker.
func ListBiomarkers(c flamego.Context, s session.Session, svc *Services) {
	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	readings, err := biomarker.LoadReadings(c.Request().Context(), svc.Meta, userID)
	if err != nil {
		logger.Error("Failed to load biomarkers", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load biomarkers")
		return
	}

	respondOK(c, map[string]any{"biomarkers": readings, "count": len(readings)})
}

// BiomarkerHistory returns every stored reading for one biomarker.
func BiomarkerHistory(c flamego.Context, s session.Session, svc *Services) {
	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	key, ok := biomarker.CanonicalKey(c.Param("key"))
	if !ok {
		respondError(c, http.StatusNotFound, "unknown biomarker")
		return
	}

	history, err := biomarker.LoadHistory(c.Request().Context(), svc.Meta, userID, key)
	if err != nil {
		logger.Error("Failed to load biomarker history", "user_id", userID, "biomarker", key, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load history")
		return
	}

	respondOK(c, map[string]any{"biomarker": key, "history": history})
}

// ImportBiomarkers imports a CSV upload for the session user.
func ImportBiomarkers(c flamego.Context, s session.Session, svc *Services) {
	userID, ok := sessionUserUUID(s)
	if !ok {
		respondError(c, http.StatusUnauthorized, errSessionUserMissing.Error())
		return
	}

	importCSV(c, svc, userID)
}

// AdminImportBiomarkers imports a CSV upload for the user named by user_id.
func AdminImportBiomarkers(c flamego.Context, svc *Services) {
	if err := parseUpload(c); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := requiredUserParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	importCSV(c, svc, userID)
}

func parseUpload(c flamego.Context) error {
	if c.Request().MultipartForm != nil {
		return nil
	}
	c.Request().Request.Body = http.MaxBytesReader(c.ResponseWriter(), c.Request().Request.Body, maxImportBytes)
	return c.Request().ParseMultipartForm(maxImportBytes)
}

func importCSV(c flamego.Context, svc *Services, userID uuid.UUID) {
	if err := parseUpload(c); err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload")
		return
	}

	file, _, err := c.Request().FormFile("csv_file")
	if err != nil {
		respondError(c, http.StatusBadRequest, errMissingCSVFile.Error())
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("Failed to close upload", "error", err)
		}
	}()

	overwrite := parseBool(c.Request().FormValue("overwrite"))

	ctx := c.Request().Context()
	summary, err := biomarker.ImportCSV(ctx, svc.Meta, userID, file, overwrite)
	if err != nil {
		if isImportInputError(err) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Failed to import biomarkers", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to import biomarkers")
		return
	}

	svc.Completeness.Invalidate(ctx, userID)

	logger.Info("Imported biomarkers", "user_id", userID, "imported", summary.Imported, "skipped", summary.Skipped)

	respondOK(c, summary)
}

// FlagBiomarker flags a biomarker for the user named by user_id.
func FlagBiomarker(c flamego.Context, s session.Session, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	admin, ok := sessionUserUUID(s)
	if !ok {
		respondError(c, http.StatusUnauthorized, errSessionUserMissing.Error())
		return
	}

	userID, err := requiredUserParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	key := trimmedFormValue(c, "biomarker")
	if key == "" {
		respondError(c, http.StatusBadRequest, errMissingBiomarker.Error())
		return
	}

	flag, err := biomarker.FlagBiomarker(c.Request().Context(), svc.Meta, userID, key, trimmedFormValue(c, "reason"), admin)
	if err != nil {
		if errors.Is(err, biomarker.ErrUnknownBiomarker) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Failed to flag biomarker", "user_id", userID, "biomarker", key, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to flag biomarker")
		return
	}

	respondOK(c, flag)
}

// UnflagBiomarker removes a flag for the user named by user_id.
func UnflagBiomarker(c flamego.Context, s session.Session, svc *Services) {
	if err := c.Request().ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse form")
		return
	}

	admin, ok := sessionUserUUID(s)
	if !ok {
		respondError(c, http.StatusUnauthorized, errSessionUserMissing.Error())
		return
	}

	userID, err := requiredUserParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	flag, err := biomarker.UnflagBiomarker(c.Request().Context(), svc.Meta, userID, trimmedFormValue(c, "flag_id"), admin)
	if err != nil {
		if errors.Is(err, biomarker.ErrFlagNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		logger.Error("Failed to unflag biomarker", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to unflag biomarker")
		return
	}

	respondOK(c, flag)
}

// ListFlags returns flagged biomarkers. include_removed=1 adds removed flags.
func ListFlags(c flamego.Context, s session.Session, svc *Services) {
	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	flags, err := biomarker.ListFlags(c.Request().Context(), svc.Meta, userID, parseBool(c.Query("include_removed")))
	if err != nil {
		logger.Error("Failed to list biomarker flags", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to list flags")
		return
	}

	respondOK(c, map[string]any{"flags": flags, "count": len(flags)})
}

func isImportInputError(err error) bool {
	return errors.Is(err, biomarker.ErrEmptyCSV) ||
		errors.Is(err, biomarker.ErrMalformedCSV) ||
		errors.Is(err, biomarker.ErrUnknownBiomarker) ||
		errors.Is(err, biomarker.ErrInvalidReading)
}

func parseBool(raw string) bool {
	switch raw {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
