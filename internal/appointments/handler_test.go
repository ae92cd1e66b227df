package appointments

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"consult-backend/internal/auth"
	"consult-backend/internal/transport"
	"consult-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T, f fixture) http.Handler {
	t.Helper()
	h := NewHandler(f.svc, validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch req.Header.Get("X-Test-User") {
			case "client-1":
				req = req.WithContext(auth.WithActor(req.Context(), clientActor))
			case "consultant-1":
				req = req.WithContext(auth.WithActor(req.Context(), consultantActor))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/appointments", h.Book)
	r.Get("/appointments/{id}", h.Get)
	r.Post("/appointments/{id}/confirm", h.Confirm)
	r.Post("/appointments/{id}/cancel", h.Cancel)
	r.Post("/appointments/{id}/complete", h.Complete)
	r.Get("/clients/{id}/appointments", h.ListByClient)
	r.Get("/consultants/{id}/availability", h.Availability)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerBookAndConflict(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)

	body := map[string]interface{}{
		"consultant_id":    "consultant-1",
		"appointment_date": "2026-02-04T10:00:00Z",
		"duration_minutes": 60,
		"type":             "ONLINE",
	}
	rec := doJSON(t, router, http.MethodPost, "/appointments", "client-1", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Appointment
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != StatusPending || created.ClientID != "client-1" {
		t.Fatalf("unexpected appointment: %+v", created)
	}

	rec = doJSON(t, router, http.MethodPost, "/appointments", "client-1", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var resp transport.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != "conflict" {
		t.Fatalf("expected conflict code, got %q", resp.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/appointments", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", rec.Code)
	}
}

func TestHandlerBookValidation(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)

	rec := doJSON(t, router, http.MethodPost, "/appointments", "client-1", map[string]interface{}{
		"consultant_id":    "consultant-1",
		"appointment_date": "2026-02-04T10:00:00Z",
		"duration_minutes": 5,
		"type":             "ONLINE",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/appointments", "client-1", map[string]interface{}{
		"consultant_id": "consultant-1",
		"unknown":       true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestHandlerTransitions(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)
	a := f.book(t, clientActor, "consultant-1", slot(9, 0), 60)

	rec := doJSON(t, router, http.MethodPost, "/appointments/"+a.ID+"/confirm", "client-1", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client confirm, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/appointments/"+a.ID+"/complete", "consultant-1", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for completing pending, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/appointments/"+a.ID+"/confirm", "consultant-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for confirm, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/appointments/"+a.ID+"/cancel", "client-1", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for cancel without reason, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/appointments/"+a.ID+"/cancel", "client-1", map[string]string{"reason": "travel"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for cancel, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/appointments/missing", "client-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerListAndAvailability(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)
	f.book(t, clientActor, "consultant-1", slot(9, 0), 45)

	rec := doJSON(t, router, http.MethodGet, "/clients/client-1/appointments?upcoming=true", "client-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Items []View `json:"items"`
	}
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Items) != 1 || list.Items[0].Consultant == nil {
		t.Fatalf("unexpected list: %+v", list.Items)
	}

	rec = doJSON(t, router, http.MethodGet, "/clients/client-1/appointments?upcoming=maybe", "client-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad flag, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/consultants/consultant-1/availability?date=2026-02-04&duration=45", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var avail Availability
	json.NewDecoder(rec.Body).Decode(&avail)
	if len(avail.Slots) != 7 || avail.Slots[0] != "09:45" {
		t.Fatalf("unexpected slots: %v", avail.Slots)
	}

	rec = doJSON(t, router, http.MethodGet, "/consultants/consultant-1/availability?date=04-02-2026", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}
