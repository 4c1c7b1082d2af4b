// Package handler is the HTTP layer: it decodes requests, calls a service
// and writes JSON. No business rule lives here.
package handler

// RESPONSE HELPERS:
// Every endpoint answers through writeJSON or writeError, so the error shape
// is the same for all of them:
//
//	{"error": "not_found", "message": "user not found with id abc123"}

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/codesync/internal/apperror"
)

// maxBodyBytes caps request bodies. An upload carries at most ~200KB of
// notes and code, so 1MB leaves plenty of room for JSON escaping.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input field, for validation errors
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything set after the body starts is ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status.
//
//	ErrValidation → 400   ErrAuth     → 401   ErrForbidden → 403
//	ErrNotFound   → 404   ErrConflict → 409   anything else → 500
//
// ErrConflict is checked before ErrAuth: a duplicate signup matches both and
// is reported as 409.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrAuth):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	// Never expose internal details: the raw message may carry SQL or paths.
	slog.Error("internal error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads one JSON object from the body into dst. Failures come
// back as validation errors so writeError reports them as 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.ValidationFailed("body",
				fmt.Sprintf("request body must be %d bytes or fewer", maxErr.Limit))
		}
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
