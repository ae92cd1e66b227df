package reviews

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"consult-backend/internal/auth"
	"consult-backend/internal/httpx"
	"consult-backend/internal/middleware"
	"consult-backend/internal/transport"
	"consult-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{service: service, val: val, log: log}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	appointmentID := strings.TrimSpace(chi.URLParam(r, "id"))

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("reviews create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("reviews create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	review, err := h.service.Create(ctx, actor, appointmentID, req.Rating, req.Comment)
	if err != nil {
		h.fail(w, log, "reviews create", err)
		return
	}

	log.Info("reviews create: ok", slog.String("review_id", review.ID), slog.String("appointment_id", appointmentID))
	transport.WriteJSON(w, http.StatusCreated, review)
}

func (h *Handler) GetByAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	appointmentID := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	review, err := h.service.GetByAppointment(ctx, appointmentID)
	if err != nil {
		h.fail(w, log, "reviews get", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, review)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("reviews update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("reviews update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	review, err := h.service.Update(ctx, actor, id, req)
	if err != nil {
		h.fail(w, log, "reviews update", err)
		return
	}

	log.Info("reviews update: ok", slog.String("review_id", id))
	transport.WriteJSON(w, http.StatusOK, review)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, actor, id); err != nil {
		h.fail(w, log, "reviews delete", err)
		return
	}

	log.Info("reviews delete: ok", slog.String("review_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListByConsultant(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	consultantID := strings.TrimSpace(chi.URLParam(r, "id"))
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("reviews list: invalid pagination", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListByConsultant(ctx, consultantID, limit, offset)
	if err != nil {
		h.fail(w, log, "reviews list", err)
		return
	}

	log.Info("reviews list: ok", slog.String("consultant_id", consultantID), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) Rating(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	consultantID := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := h.service.ConsultantSummary(ctx, consultantID)
	if err != nil {
		h.fail(w, log, "reviews rating", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) fail(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	if transport.WriteAppError(w, err) {
		log.Warn(op+": rejected", slog.String("reason", err.Error()))
		return
	}
	log.Error(op+": database error", slog.String("error", err.Error()))
	transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
