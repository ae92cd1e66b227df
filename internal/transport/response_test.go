package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"consult-backend/internal/apperr"
)

func TestWriteAppErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Validation("rating", "out of range"), http.StatusBadRequest, "validation_error"},
		{apperr.NotFound("appointment not found"), http.StatusNotFound, "not_found"},
		{apperr.Unauthorized("consultant only"), http.StatusForbidden, "unauthorized"},
		{apperr.InvalidState("already confirmed"), http.StatusConflict, "invalid_state"},
		{apperr.Conflict("slot taken"), http.StatusConflict, "conflict"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		if !WriteAppError(rec, tc.err) {
			t.Fatalf("expected %v to be handled", tc.err)
		}
		if rec.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, rec.Code)
		}
		var body ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Code != tc.code {
			t.Fatalf("%v: expected code %q, got %q", tc.err, tc.code, body.Code)
		}
	}
}

func TestWriteAppErrorIgnoresStoreFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	if WriteAppError(rec, errors.New("connection reset")) {
		t.Fatalf("plain errors must not be mapped")
	}
}
