package api

import (
	"net/http"
	"time"
)

// finderResponse is the API representation of one running finder.
type finderResponse struct {
	Kind            string     `json:"kind"`
	EventsProcessed int64      `json:"events_processed"`
	EventsDropped   int64      `json:"events_dropped"`
	EventsMalformed int64      `json:"events_malformed"`
	Records         int        `json:"records"`
	LastDrain       *time.Time `json:"last_drain,omitempty"`
}

// handleListFinders returns the ingestion statistics of every running finder.
//
// GET /api/v1/finders
func (s *Server) handleListFinders(w http.ResponseWriter, _ *http.Request) {
	out := make([]finderResponse, 0, len(s.finders))
	for _, f := range s.finders {
		stats := f.Stats()
		resp := finderResponse{
			Kind:            f.Kind(),
			EventsProcessed: stats.EventsProcessed,
			EventsDropped:   stats.EventsDropped,
			EventsMalformed: stats.EventsMalformed,
			Records:         stats.Records,
		}
		if !stats.LastDrain.IsZero() {
			drain := stats.LastDrain
			resp.LastDrain = &drain
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"finders": out,
		"count":   len(out),
	})
}
