package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig wires the handlers and cross-cutting middleware of the API.
type RouterConfig struct {
	Reservations *ReservationHandler
	Resources    *ResourceHandler
	Health       Pinger
	Logger       *slog.Logger
	CORSOrigins  []string
}

// NewRouter assembles the chi router for the reservation API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(ExtractIdentity())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowedHeaders:   []string{"Accept", "Content-Type", actorIDHeader, actorRoleHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", healthHandler(cfg.Health, cfg.Logger))

		if cfg.Reservations != nil {
			r.Route("/reservations", func(r chi.Router) {
				r.Post("/", cfg.Reservations.Create)
				r.Get("/", cfg.Reservations.List)
				r.Get("/{id}", cfg.Reservations.Get)
				r.Patch("/{id}", cfg.Reservations.Transition)
				r.Delete("/{id}", cfg.Reservations.Delete)
			})
			r.Patch("/reservation-groups/{groupID}/bulk", cfg.Reservations.BulkTransition)
			r.Get("/availability/{date}", cfg.Reservations.Availability)
			r.Post("/admin/complete-elapsed", cfg.Reservations.CompleteElapsed)
		}

		if cfg.Resources != nil {
			r.Route("/resources", func(r chi.Router) {
				r.Get("/", cfg.Resources.List)
				r.Post("/", cfg.Resources.Create)
				r.Get("/{id}", cfg.Resources.Get)
				r.Put("/{id}", cfg.Resources.Update)
				r.Delete("/{id}", cfg.Resources.Delete)
			})
		}
	})

	return r
}

func healthHandler(health Pinger, logger *slog.Logger) http.HandlerFunc {
	resp := newResponder(logger)

	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health.Ping(r.Context()); err != nil {
				resp.writeJSON(r.Context(), w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		resp.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
