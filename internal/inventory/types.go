package inventory

import "time"

// Record is one row of the persistent service inventory: a distinct
// service observed by a finder, with its property map and sighting
// statistics. The pair (Finder, Key) is the natural identity; re-sightings
// update the existing row.
type Record struct {
	// ID is the surrogate row identifier (UUID), assigned on first insert.
	ID string `json:"id"`

	// Finder is the finder kind that observed the service.
	Finder string `json:"finder"`

	// Key is the service identity within the finder (instance name,
	// topic, device node).
	Key string `json:"key"`

	// ServiceType is the transport-specific type tag.
	ServiceType string `json:"service_type"`

	// Properties is the most recently observed property map.
	Properties map[string]string `json:"properties"`

	// FirstSeen/LastSeen bound the sighting window.
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`

	// TimesSeen counts sightings across the service's lifetime.
	TimesSeen int64 `json:"times_seen"`
}

// Summary provides aggregate statistics over the inventory.
type Summary struct {
	TotalServices  int            `json:"total_services"`
	ByFinder       map[string]int `json:"by_finder"`
	ActiveLast5Min int            `json:"active_last_5min"`
	ActiveLastHour int            `json:"active_last_1hour"`
}
