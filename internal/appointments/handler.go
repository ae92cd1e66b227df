package appointments

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"consult-backend/internal/auth"
	"consult-backend/internal/httpx"
	"consult-backend/internal/middleware"
	"consult-backend/internal/schedule"
	"consult-backend/internal/transport"
	"consult-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service  *Service
	val      *validation.Validator
	log      *slog.Logger
	location *time.Location
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		val:      val,
		log:      log,
		location: service.location,
	}
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req BookRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments book: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.ConsultantID = strings.TrimSpace(req.ConsultantID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments book: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appointment, err := h.service.Book(ctx, actor, req)
	if err != nil {
		h.fail(w, log, "appointments book", err)
		return
	}

	log.Info("appointments book: ok",
		slog.String("appointment_id", appointment.ID),
		slog.String("consultant_id", appointment.ConsultantID),
		slog.Time("start", appointment.AppointmentDate),
		slog.Int("duration", appointment.DurationMinutes),
	)
	transport.WriteJSON(w, http.StatusCreated, appointment)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := h.service.Get(ctx, actor, id)
	if err != nil {
		h.fail(w, log, "appointments get", err)
		return
	}

	log.Info("appointments get: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) ListByClient(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "appointments list by client", h.service.ListByClient)
}

func (h *Handler) ListByConsultant(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "appointments list by consultant", h.service.ListByConsultant)
}

type listFunc func(ctx context.Context, actor auth.Actor, id string, upcomingOnly bool) ([]View, error)

func (h *Handler) list(w http.ResponseWriter, r *http.Request, op string, fn listFunc) {
	log := h.logWithRequest(r)
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	upcoming, err := httpx.ParseBool(r.URL.Query(), "upcoming")
	if err != nil {
		log.Warn(op+": invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := fn(ctx, actor, id, upcoming)
	if err != nil {
		h.fail(w, log, op, err)
		return
	}

	log.Info(op+": ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "appointments confirm", func(ctx context.Context, actor auth.Actor, id string) (Appointment, error) {
		return h.service.Confirm(ctx, actor, id)
	})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if !h.decode(w, r, "appointments cancel", &req) {
		return
	}
	h.transition(w, r, "appointments cancel", func(ctx context.Context, actor auth.Actor, id string) (Appointment, error) {
		return h.service.Cancel(ctx, actor, id, req.Reason)
	})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if r.ContentLength != 0 && !h.decode(w, r, "appointments complete", &req) {
		return
	}
	h.transition(w, r, "appointments complete", func(ctx context.Context, actor auth.Actor, id string) (Appointment, error) {
		return h.service.Complete(ctx, actor, id, req.ConsultantNotes)
	})
}

func (h *Handler) SetMeetingLink(w http.ResponseWriter, r *http.Request) {
	var req MeetingLinkRequest
	if !h.decode(w, r, "appointments meeting link", &req) {
		return
	}
	h.transition(w, r, "appointments meeting link", func(ctx context.Context, actor auth.Actor, id string) (Appointment, error) {
		return h.service.AttachMeetingLink(ctx, actor, id, req.MeetingLink)
	})
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentSignal
	if !h.decode(w, r, "appointments payment", &req) {
		return
	}
	h.transition(w, r, "appointments payment", func(ctx context.Context, actor auth.Actor, id string) (Appointment, error) {
		return h.service.RecordPayment(ctx, actor, id, req)
	})
}

type transitionCall func(ctx context.Context, actor auth.Actor, id string) (Appointment, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string, call transitionCall) {
	log := h.logWithRequest(r)
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	updated, err := call(ctx, actor, id)
	if err != nil {
		h.fail(w, log, op, err)
		return
	}

	log.Info(op+": ok", slog.String("appointment_id", id), slog.String("status", string(updated.Status)))
	transport.WriteJSON(w, http.StatusOK, updated)
}

type availabilityQuery struct {
	Date string `validate:"required,date"`
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	consultantID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	q := availabilityQuery{Date: r.URL.Query().Get("date")}
	if err := h.val.Struct(q); err != nil {
		log.Warn("availability: invalid query")
		transport.WriteError(w, http.StatusBadRequest, "invalid query", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}
	duration, err := parseDurationParam(r.URL.Query().Get("duration"), schedule.SlotMinutes)
	if err != nil {
		log.Warn("availability: invalid duration")
		transport.WriteError(w, http.StatusBadRequest, "invalid duration", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	availability, err := h.service.FreeSlots(ctx, consultantID, q.Date, duration)
	if err != nil {
		h.fail(w, log, "availability", err)
		return
	}

	log.Info("availability: ok",
		slog.String("consultant_id", consultantID),
		slog.String("date", q.Date),
		slog.Int("slots", len(availability.Slots)),
	)
	transport.WriteJSON(w, http.StatusOK, availability)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	consultantID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	from, err := httpx.ParseTime(r.URL.Query().Get("from"), h.location)
	if err != nil {
		log.Warn("consultant stats: invalid from", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, "invalid from", nil)
		return
	}
	to, err := httpx.ParseTime(r.URL.Query().Get("to"), h.location)
	if err != nil {
		log.Warn("consultant stats: invalid to", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, "invalid to", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	stats, err := h.service.Stats(ctx, actor, consultantID, from, to)
	if err != nil {
		h.fail(w, log, "consultant stats", err)
		return
	}

	log.Info("consultant stats: ok", slog.String("consultant_id", consultantID), slog.Int64("completed", stats.CompletedCount))
	transport.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, op string, v interface{}) bool {
	log := h.logWithRequest(r)
	if err := httpx.DecodeJSON(r.Body, v); err != nil {
		log.Warn(op + ": invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return false
	}
	if err := h.val.Struct(v); err != nil {
		log.Warn(op + ": validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	if transport.WriteAppError(w, err) {
		log.Warn(op+": rejected", slog.String("reason", err.Error()))
		return
	}
	log.Error(op+": database error", slog.String("error", err.Error()))
	transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return auth.Actor{}, false
	}
	return actor, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, key))
	if id == "" {
		h.logWithRequest(r).Warn("missing path parameter", slog.String("param", key))
		transport.WriteError(w, http.StatusBadRequest, "missing "+key, nil)
		return "", false
	}
	return id, true
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

func parseDurationParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
