package mentors

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
	"github.com/mentorhub/mentorhub/internal/shared"
)

// Handler manages mentor profile endpoints.
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

// MountRoutes registers mentor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermProfileView))
		r.Get("/mentors", h.directory)
		r.Get("/mentors/{mentorID}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermProfileEditOwn))
		r.Put("/mentors/profile", h.saveProfile)
	})
}

type profileRequest struct {
	Headline            string   `json:"headline" validate:"required,max=140"`
	Bio                 string   `json:"bio" validate:"max=4000"`
	Subjects            []string `json:"subjects" validate:"max=20,dive,max=60"`
	HourlyRate          float64  `json:"hourly_rate" validate:"gte=0"`
	Timezone            string   `json:"timezone"`
	OnboardingCompleted bool     `json:"onboarding_completed"`
}

func (h *Handler) directory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := shared.NewPagination(page, perPage, 0)

	profiles, meta, err := h.service.Directory(r.Context(), pagination)
	if err != nil {
		h.logger.Error("mentor directory", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"mentors": profiles, "pagination": meta})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), chi.URLParam(r, "mentorID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		fields := map[string]string{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		httpx.ValidationProblem(w, &httpx.FieldErrors{Fields: fields})
		return
	}

	actor := rbac.ContextFor(r)
	err := h.service.SaveProfile(r.Context(), Profile{
		UserID:              actor.UserID,
		Headline:            req.Headline,
		Bio:                 req.Bio,
		Subjects:            req.Subjects,
		HourlyRate:          req.HourlyRate,
		Timezone:            req.Timezone,
		OnboardingCompleted: req.OnboardingCompleted,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
