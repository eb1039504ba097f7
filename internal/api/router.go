package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the daemon's HTTP control surface.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/alarm", h.handleArm)
		r.Delete("/alarm", h.handleDisarm)
		r.Post("/answer", h.handleAnswer)
		r.Get("/status", h.handleStatus)
	})

	r.Get("/ws", h.handleWebSocket)
	r.Get("/metrics", h.handleMetrics)

	return r
}
