// Package inventory persists every service the finders observe into
// SQLite, independent of whether the service matched a catalog entry.
//
// The inventory answers "what is on this network" questions in the UI
// and provides the raw material for authoring new catalog entries: a
// service that matches nothing today is exactly the one whose recorded
// properties you need when writing tomorrow's match rules.
//
// Writes are decoupled from the finder drain loops through the
// Recorder, which buffers observations on a bounded channel and
// upserts them from a single background goroutine. Retention is
// enforced periodically; services unseen past the configured window
// are purged.
package inventory
