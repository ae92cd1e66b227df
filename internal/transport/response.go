package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"consult-backend/internal/apperr"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// WriteAppError maps a business rejection to its HTTP status. It returns
// false when err is not an *apperr.Error so the caller can treat it as a
// store failure.
func WriteAppError(w http.ResponseWriter, err error) bool {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return false
	}

	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperr.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrUnauthorized):
		status, code = http.StatusForbidden, "unauthorized"
	case errors.Is(err, apperr.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, apperr.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	}

	var details map[string]string
	if appErr.Field != "" {
		details = map[string]string{appErr.Field: appErr.Message}
	}
	WriteJSON(w, status, ErrorResponse{Error: appErr.Message, Code: code, Details: details})
	return true
}
