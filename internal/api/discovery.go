package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/inventory"
)

// handleListDiscovered returns the persisted service inventory, most
// recently seen first. An optional ?finder= parameter restricts the
// listing to one finder kind.
//
// GET /api/v1/discovery
// GET /api/v1/discovery?finder=mdns
func (s *Server) handleListDiscovered(w http.ResponseWriter, r *http.Request) {
	if s.inventory == nil {
		writeNotFound(w, "service inventory not enabled")
		return
	}

	var (
		records []inventory.Record
		err     error
	)
	if finder := r.URL.Query().Get("finder"); finder != "" {
		records, err = s.inventory.ListByFinder(r.Context(), finder)
	} else {
		records, err = s.inventory.List(r.Context())
	}
	if err != nil {
		s.logger.Error("failed to list discovered services", "error", err)
		writeInternalError(w, "failed to list discovered services")
		return
	}

	if records == nil {
		records = []inventory.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"services": records,
		"count":    len(records),
	})
}

// handleDiscoverySummary returns aggregate inventory statistics: totals
// per finder and counts of recently active services.
//
// GET /api/v1/discovery/summary
func (s *Server) handleDiscoverySummary(w http.ResponseWriter, r *http.Request) {
	if s.inventory == nil {
		writeNotFound(w, "service inventory not enabled")
		return
	}

	summary, err := s.inventory.Summarize(r.Context(), time.Now())
	if err != nil {
		s.logger.Error("failed to summarize inventory", "error", err)
		writeInternalError(w, "failed to summarize inventory")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
