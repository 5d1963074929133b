package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/ticketing/services/event-service/internal/application/event"
	"github.com/baechuer/ticketing/services/event-service/internal/config"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/ticketing/services/event-service/internal/transport/http/middleware"
)

func New(
	h *handlers.EventsHandler,
	auth *authmw.AuthMiddleware,
	z *handlers.HealthHandler,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.Metrics)
	r.Use(authmw.AccessLog)

	r.Get("/healthz", z.Healthz)
	r.Get("/readyz", z.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/event/v1", func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
		}

		r.Get("/events", h.ListPublic)
		r.Get("/events/{event_id}", h.GetPublic)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Post("/events", h.Create)
			r.Patch("/events/{event_id}", h.Update)
			r.Post("/events/{event_id}/publish", h.Publish)
			r.Post("/events/{event_id}/cancel", h.Cancel)

			r.Get("/organizer/events", h.ListMine)
			r.Get("/organizer/events/{event_id}", h.GetMine)

			// suspend and complete are further narrowed to admin by the service
			r.Route("/admin/events", func(r chi.Router) {
				r.Use(authmw.RequireRole(event.RoleAdmin, event.RoleModerator))
				r.Get("/", h.ListAll)
				r.Post("/{event_id}/suspend", h.Suspend)
				r.Post("/{event_id}/complete", h.Complete)
			})
		})
	})

	return r
}
