package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(h.metrics.Instrument)

	// CORS - the dashboard frontend runs on its own origin in development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check and metrics (no session required)
	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Delete("/", h.DeleteSession)
			r.Get("/state", h.GetState)
			r.Put("/draft", h.UpdateDraft)
			r.Post("/apply", h.ApplyFilters)
			r.Put("/table-filters", h.UpdateTableFilters)
			r.Post("/refresh", h.Refresh)
		})

		r.Get("/date-templates", h.ListDateTemplates)
		r.Get("/network-campaigns", h.GetNetworkCampaigns)
		r.Get("/health/sync-status", h.GetSyncStatus)
	})

	return r
}
