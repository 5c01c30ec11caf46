package api

import (
	"net/http"
)

// handleSuggestions returns the add-ons currently suggested for the
// network, localized per the optional ?locale= query parameter.
//
// GET /api/v1/suggestions
// GET /api/v1/suggestions?locale=de-DE
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = s.locale
	}

	suggestions := s.aggregator.GetSuggestedAddons(r.Context(), locale)

	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"count":       len(suggestions),
		"locale":      locale,
	})
}
