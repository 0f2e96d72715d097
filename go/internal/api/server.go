// Package api exposes the condition-editing and session-control surface
// over HTTP, plus the websocket alert stream.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/mcourt/clutchtime/go/internal/gateway"
)

// NewRouter creates the chi router with all middleware and routes.
func NewRouter(h *Handler, hub *gateway.Hub, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	c := corslib.New(corslib.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Condition editing
		r.Post("/conditions", h.CreateCondition)
		r.Delete("/conditions/{conditionID}", h.DeleteCondition)
		r.Get("/games/{gameID}/conditions", h.GetGameConditions)

		// Live data passthrough for game browsing
		r.Get("/scoreboard", h.GetScoreboard)
		r.Get("/schedule", h.GetSchedule)

		// Session control
		r.Post("/sessions", h.StartSession)
		r.Get("/sessions/latest", h.GetLatestSession)
		r.Post("/sessions/{sessionID}/kill", h.KillSession)
		r.Post("/sessions/{sessionID}/check", h.TriggerCheck)
	})

	// Alert stream
	r.Get("/ws", hub.HandleWS)

	return r
}
