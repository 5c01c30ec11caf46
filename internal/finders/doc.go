// Package finders provides the shared match-state core behind every add-on
// discovery finder.
//
// A finder watches one transport (mDNS, the MQTT broker, the USB bus) and
// answers a single question: which of the configured add-on candidates
// appear to be present? The hard part is doing this without ever making a
// transport callback wait on bookkeeping, and without suggestion queries
// observing half-applied state.
//
// # Architecture
//
//	transport callback ──Submit()──▶ bounded queue ──drain loop──▶ record map
//	                                                                  │ (atomic swap)
//	suggestion query ──GetSuggestedAddons()──────────────────────────◀┘
//
// The ingestion queue decouples bursty producers (a network announcement
// storm) from the single drain consumer. The record map is never mutated in
// place: each drain cycle copies it, applies the batch, and swaps the copy
// in with an atomic pointer store. Readers hold whichever snapshot was
// current when they loaded the pointer and lag the queue by at most one
// drain cycle.
//
// Concrete finders live in the subpackages mdns, mqttdisc, and usb; each
// embeds BaseFinder and translates its transport's callbacks into
// ServiceEvents. The transports themselves are black boxes (zeroconf, the
// paho MQTT client, sysfs).
//
// # Thread Safety
//
// All BaseFinder methods are safe for concurrent use. Submit never blocks.
package finders
