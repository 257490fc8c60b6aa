package availability

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
)

// Handler manages availability endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers availability routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermAvailabilityView))
		r.Get("/mentors/{mentorID}/availability", h.listRules)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermAvailabilitySet))
		r.Put("/mentors/availability", h.setRule)
		r.Post("/mentors/availability/{ruleID}/exceptions", h.addException)
		r.Delete("/mentors/availability/{ruleID}/exceptions/{exceptionID}", h.removeException)
		r.Delete("/mentors/availability/{ruleID}", h.deactivateRule)
	})
}

type setRuleRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Timezone  string `json:"timezone"`
}

type addExceptionRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Type      string `json:"type" validate:"required,oneof=unavailable custom_hours"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	mentorID := chi.URLParam(r, "mentorID")
	rules, err := h.service.WeeklySchedule(r.Context(), mentorID)
	if err != nil {
		h.logger.Error("list availability", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) setRule(w http.ResponseWriter, r *http.Request) {
	var req setRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fieldErrors(err))
		return
	}
	actor := rbac.ContextFor(r)
	rule, err := h.service.SetRule(r.Context(), Rule{
		MentorID:  actor.UserID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Timezone:  req.Timezone,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) addException(w http.ResponseWriter, r *http.Request) {
	var req addExceptionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fieldErrors(err))
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	actor := rbac.ContextFor(r)
	exc, err := h.service.AddException(r.Context(), actor.UserID, Exception{
		RuleID:    chi.URLParam(r, "ruleID"),
		Date:      date,
		Type:      ExceptionType(req.Type),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exc)
}

func (h *Handler) removeException(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ContextFor(r)
	err := h.service.RemoveException(r.Context(), actor.UserID, chi.URLParam(r, "ruleID"), chi.URLParam(r, "exceptionID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deactivateRule(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ContextFor(r)
	if err := h.service.DeactivateRule(r.Context(), actor.UserID, chi.URLParam(r, "ruleID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fieldErrors converts validator output into the platform field-error shape.
func fieldErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return httpx.ErrValidation
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &httpx.FieldErrors{Fields: fields}
}
