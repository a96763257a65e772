package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tomcamp/tomcamp-core/internal/auth"
	"github.com/tomcamp/tomcamp-core/internal/device"
	"github.com/tomcamp/tomcamp-core/internal/journal"
	"github.com/tomcamp/tomcamp-core/internal/page"
	"github.com/tomcamp/tomcamp-core/internal/store"
)

// Error is the body of every error response. Detail is a fixed message;
// internal causes are only logged.
type Error struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Error codes.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeInvalidAPIKey      = "invalid_api_key"
	ErrCodeMismatchedDevice   = "mismatched_device"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeAlreadyExists      = "already_exists"
	ErrCodeRevisionConflict   = "revision_conflict"
	ErrCodeValidation         = "validation_error"
	ErrCodeInternal           = "internal_error"
)

// Fixed response messages.
const (
	msgInvalidCredentials = "Incorrect username or password"
	msgInvalidToken       = "Could not validate credentials"
	msgForbidden          = "Not enough permissions"
	msgSelfModification   = "Cannot change own role or delete own account"
	msgInvalidAPIKey      = "Invalid API key"
	msgMismatchedDevice   = "Mismatched device ID"
	msgRevisionConflict   = "Document was modified concurrently"
	msgValidation         = "Invalid request data"
	msgInternal           = "Internal server error"
)

// errorMapping maps a sentinel to its response.
type errorMapping struct {
	target error
	status int
	code   string
	detail string
}

// errorTable is checked in order; the first errors.Is match wins.
var errorTable = []errorMapping{
	{auth.ErrInvalidCredentials, http.StatusBadRequest, ErrCodeInvalidCredentials, msgInvalidCredentials},
	{auth.ErrTokenInvalid, http.StatusUnauthorized, ErrCodeInvalidToken, msgInvalidToken},
	{device.ErrInvalidAPIKey, http.StatusUnauthorized, ErrCodeInvalidAPIKey, msgInvalidAPIKey},
	{device.ErrMismatchedDevice, http.StatusUnauthorized, ErrCodeMismatchedDevice, msgMismatchedDevice},
	{auth.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, msgForbidden},
	{auth.ErrSelfModification, http.StatusForbidden, ErrCodeForbidden, msgSelfModification},

	{auth.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound, "User not found"},
	{journal.ErrJournalNotFound, http.StatusNotFound, ErrCodeNotFound, "Journal not found"},
	{page.ErrPageNotFound, http.StatusNotFound, ErrCodeNotFound, "Page not found"},
	{device.ErrDeviceNotFound, http.StatusNotFound, ErrCodeNotFound, "Device not found"},
	{store.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "Not found"},

	{auth.ErrUsernameExists, http.StatusBadRequest, ErrCodeAlreadyExists, "Username already registered"},
	{auth.ErrEmailExists, http.StatusBadRequest, ErrCodeAlreadyExists, "Email already registered"},
	{journal.ErrJournalExists, http.StatusBadRequest, ErrCodeAlreadyExists, "Journal already registered"},
	{page.ErrPageExists, http.StatusBadRequest, ErrCodeAlreadyExists, "Page already registered"},
	{device.ErrDeviceExists, http.StatusBadRequest, ErrCodeAlreadyExists, "Device already registered"},

	{store.ErrRevisionConflict, http.StatusConflict, ErrCodeRevisionConflict, msgRevisionConflict},

	{auth.ErrInvalidUsername, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{auth.ErrInvalidEmail, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{auth.ErrInvalidPassword, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{auth.ErrInvalidRole, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{journal.ErrInvalidTitle, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{journal.ErrInvalidEntry, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{page.ErrInvalidTitle, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{device.ErrInvalidDeviceID, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{device.ErrInvalidData, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
	{device.ErrInvalidNotes, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation},
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, Error{
		Status: status,
		Code:   code,
		Detail: detail,
	})
}

// writeUnauthorized writes the bearer-token 401 with its challenge header.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, ErrCodeInvalidToken, msgInvalidToken)
}

// writeValidationError writes a 422.
func writeValidationError(w http.ResponseWriter) {
	writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, msgValidation)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
}

// writeServiceError maps a service error to its response. Unknown errors
// are logged and become a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, auth.ErrTokenInvalid) {
		writeUnauthorized(w)
		return
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, m.detail)
			return
		}
	}
	s.logger.Error(op+" failed",
		"error", err,
		"request_id", requestIDFromContext(r.Context()),
	)
	writeInternalError(w)
}

// decodeJSON reads a JSON body into v, writing a 422 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeValidationError(w)
		return false
	}
	return true
}
