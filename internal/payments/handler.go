package payments

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
	"github.com/mentorhub/mentorhub/internal/shared"
)

// Handler manages payment endpoints. The webhook authenticates with a
// shared secret instead of a user session.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	rbac          rbac.Middleware
	webhookSecret string
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, webhookSecret string) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, webhookSecret: webhookSecret}
}

// MountRoutes registers the authenticated payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Get("/payments", h.list)
	})
}

// MountWebhook registers the provider callback. Mounted outside the
// session middleware chain.
func (h *Handler) MountWebhook(r chi.Router) {
	r.Post("/payments/webhook", h.webhook)
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Webhook-Secret")
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var event WebhookEvent
	if err := httpx.DecodeJSON(r, &event); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.HandleWebhook(r.Context(), event); err != nil {
		h.logger.Error("payment webhook", slog.String("event_id", event.EventID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, pagination, err := h.service.ListForActor(r.Context(), rbac.ContextFor(r), shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": items, "pagination": pagination})
}
