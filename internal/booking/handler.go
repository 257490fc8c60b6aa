package booking

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mentorhub/mentorhub/internal/observability"
	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
)

// Handler manages booking endpoints. Permission decisions live in the
// service; the router only gates on authentication.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
	metrics *observability.Metrics
}

// NewHandler builds Handler instance. metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, metrics: metrics}
}

// MountRoutes registers booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Post("/bookings", h.create)
		r.Get("/bookings", h.list)
		r.Get("/bookings/{sessionID}", h.get)
		r.Post("/bookings/{sessionID}/cancel", h.cancel)
		r.Post("/bookings/{sessionID}/complete", h.complete)
		r.Post("/bookings/{sessionID}/reschedule", h.reschedule)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	sess, err := h.service.Create(r.Context(), rbac.ContextFor(r), req)
	if err != nil {
		if errors.Is(err, httpx.ErrConflict) {
			h.metrics.CountBooking("conflict")
		}
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountBooking("created")
	httpx.JSON(w, http.StatusCreated, sess)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)
	items, pagination, err := h.service.List(r.Context(), rbac.ContextFor(r), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sessions": items, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(r.Context(), rbac.ContextFor(r), chi.URLParam(r, "sessionID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	sess, err := h.service.Cancel(r.Context(), rbac.ContextFor(r), chi.URLParam(r, "sessionID"), req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountBooking("cancelled")
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Complete(r.Context(), rbac.ContextFor(r), chi.URLParam(r, "sessionID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	sess, err := h.service.Reschedule(r.Context(), rbac.ContextFor(r), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

func listFilterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	filter := ListFilter{
		StudentID: q.Get("student_id"),
		MentorID:  q.Get("mentor_id"),
		Status:    Status(q.Get("status")),
	}
	if v, err := time.Parse("2006-01-02", q.Get("date_from")); err == nil {
		filter.DateFrom = &v
	}
	if v, err := time.Parse("2006-01-02", q.Get("date_to")); err == nil {
		filter.DateTo = &v
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	return filter
}
