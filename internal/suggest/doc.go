// Package suggest implements add-on suggestion aggregation for Gray Logic
// Add-on Scout.
//
// It holds the live set of discovery finders (Registry) and answers
// suggestion queries by fanning out over that set and unioning the results
// (Aggregator). The central contract is non-blocking coexistence:
//
//   - Registering or unregistering a finder never blocks a query in
//     progress, and vice versa. The registry is copy-on-write: every
//     mutation swaps in a fresh immutable slice, and queries traverse
//     whichever snapshot they loaded.
//   - A failing, panicking, or hung finder is isolated per call. Queries
//     run each finder in its own goroutine under a shared deadline and
//     abandon stragglers; the aggregate result is always returned.
//
// # Usage
//
//	registry := suggest.NewRegistry()
//	registry.SetAddonCandidates(catalog.Addons())
//	registry.Add(mdnsFinder)
//	registry.Add(usbFinder)
//
//	agg, _ := suggest.NewAggregator(registry, catalog, 5*time.Second)
//	suggestions := agg.GetSuggestedAddons(ctx, "de-DE")
//
// # Consistency Model
//
// Aggregation is a best-effort snapshot, not a linearizable view: a query
// racing a Remove may or may not include that finder's matches. Within a
// single finder the match-state is always internally consistent (see
// package finders).
package suggest
