package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", s.handleHealth)

		// Suggested add-ons for the current network
		r.Get("/suggestions", s.handleSuggestions)

		// Catalog endpoints
		r.Route("/addons", func(r chi.Router) {
			r.Get("/", s.handleListAddons)
			r.Get("/{id}", s.handleGetAddon)
		})

		// Discovered-service inventory
		r.Route("/discovery", func(r chi.Router) {
			r.Get("/", s.handleListDiscovered)
			r.Get("/summary", s.handleDiscoverySummary)
		})

		// Finder statistics
		r.Get("/finders", s.handleListFinders)

		// WebSocket for suggestion-change notifications
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"addons":  s.catalog.Len(),
	})
}
