package reviews

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"consult-backend/internal/auth"
	"consult-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

func newReviewRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	h := NewHandler(svc, validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("X-Test-User") == client.UserID {
				req = req.WithContext(auth.WithActor(req.Context(), client))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/appointments/{id}/review", h.Create)
	r.Get("/appointments/{id}/review", h.GetByAppointment)
	r.Get("/consultants/{id}/rating", h.Rating)
	return r
}

func postReview(t *testing.T, router http.Handler, appointmentID string, body string, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/appointments/"+appointmentID+"/review", bytes.NewBufferString(body))
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateReview(t *testing.T) {
	router := newReviewRouter(t)

	if rec := postReview(t, router, "appt-COMPLETED", `{"rating":7}`, client.UserID); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range rating, got %d", rec.Code)
	}
	if rec := postReview(t, router, "appt-COMPLETED", `{"rating":5}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", rec.Code)
	}
	if rec := postReview(t, router, "appt-CONFIRMED", `{"rating":5}`, client.UserID); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unfinished appointment, got %d", rec.Code)
	}
	if rec := postReview(t, router, "appt-COMPLETED", `{"rating":5,"comment":"clear advice"}`, client.UserID); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := postReview(t, router, "appt-COMPLETED", `{"rating":4}`, client.UserID); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate review, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/appointments/appt-COMPLETED/review", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var got Review
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || got.Rating != 5 || got.Comment != "clear advice" {
		t.Fatalf("unexpected review: %d %+v", rec.Code, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/consultants/"+consultant.UserID+"/rating", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var summary Summary
	json.NewDecoder(rec.Body).Decode(&summary)
	if summary.Count != 1 || summary.Average != 5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
