package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mentorhub/mentorhub/internal/auth"
	"github.com/mentorhub/mentorhub/internal/availability"
	"github.com/mentorhub/mentorhub/internal/booking"
	"github.com/mentorhub/mentorhub/internal/mentors"
	"github.com/mentorhub/mentorhub/internal/notifications"
	"github.com/mentorhub/mentorhub/internal/observability"
	"github.com/mentorhub/mentorhub/internal/payments"
	"github.com/mentorhub/mentorhub/internal/reviews"
	"github.com/mentorhub/mentorhub/internal/shared"
	"github.com/mentorhub/mentorhub/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler          *auth.Handler
	MentorsHandler       *mentors.Handler
	AvailabilityHandler  *availability.Handler
	BookingHandler       *booking.Handler
	ReviewsHandler       *reviews.Handler
	PaymentsHandler      *payments.Handler
	NotificationsHandler *notifications.Handler
	UsersHandler         *users.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		params.MentorsHandler.MountRoutes(r)
		params.AvailabilityHandler.MountRoutes(r)
		params.BookingHandler.MountRoutes(r)
		params.ReviewsHandler.MountRoutes(r)
		params.PaymentsHandler.MountRoutes(r)
		params.PaymentsHandler.MountWebhook(r)
		params.NotificationsHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
