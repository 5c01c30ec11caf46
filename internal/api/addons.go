package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
)

// addonResponse is the API representation of one catalog entry.
type addonResponse struct {
	ID               string                    `json:"id"`
	Name             string                    `json:"name"`
	Description      string                    `json:"description,omitempty"`
	DiscoveryMethods []discoveryMethodResponse `json:"discovery_methods,omitempty"`
}

// discoveryMethodResponse is the API representation of one discovery method.
type discoveryMethodResponse struct {
	Finder          string            `json:"finder"`
	ServiceType     string            `json:"service_type"`
	MatchProperties map[string]string `json:"match_properties,omitempty"`
}

// toAddonResponse converts a catalog entry, localizing the display fields.
func toAddonResponse(a *addon.Addon, locale string) addonResponse {
	name, description := a.Localized(locale)

	resp := addonResponse{
		ID:          a.ID,
		Name:        name,
		Description: description,
	}
	for _, m := range a.DiscoveryMethods {
		mr := discoveryMethodResponse{
			Finder:      string(m.Finder),
			ServiceType: m.ServiceType,
		}
		if len(m.MatchProperties) > 0 {
			mr.MatchProperties = make(map[string]string, len(m.MatchProperties))
			for _, p := range m.MatchProperties {
				mr.MatchProperties[p.Name] = p.Regex
			}
		}
		resp.DiscoveryMethods = append(resp.DiscoveryMethods, mr)
	}
	return resp
}

// handleListAddons returns all catalog entries.
//
// GET /api/v1/addons
// GET /api/v1/addons?locale=de
func (s *Server) handleListAddons(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = s.locale
	}

	addons := s.catalog.Addons()
	out := make([]addonResponse, 0, len(addons))
	for i := range addons {
		out = append(out, toAddonResponse(&addons[i], locale))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"addons": out,
		"count":  len(out),
	})
}

// handleGetAddon returns a single catalog entry by ID.
//
// GET /api/v1/addons/{id}
func (s *Server) handleGetAddon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.catalog.Get(id)
	if err != nil {
		writeNotFound(w, "addon not found: "+id)
		return
	}

	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = s.locale
	}

	writeJSON(w, http.StatusOK, toAddonResponse(entry, locale))
}
