package suggest

import (
	"context"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
)

// defaultFinderTimeout bounds each finder invocation during aggregation.
// One hung finder must not degrade the whole suggestion query.
const defaultFinderTimeout = 5 * time.Second

// Suggestion is one suggested add-on, localized at query time.
type Suggestion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Metrics receives aggregation telemetry. Implemented by the InfluxDB
// writer; a nil metrics sink disables recording.
type Metrics interface {
	RecordSuggestionQuery(duration time.Duration, finders, suggestions int)
	RecordFinderFailure(kind string)
}

// Aggregator fans a suggestion query out over the registered finders and
// unions their results.
//
// Each finder is invoked independently in its own goroutine with panic
// recovery and a shared deadline: a finder that fails, panics, or exceeds
// the timeout contributes nothing, and the others are unaffected. The
// query as a whole always succeeds with a (possibly empty) result set.
type Aggregator struct {
	registry *Registry
	catalog  *addon.Catalog
	timeout  time.Duration
	logger   Logger
	metrics  Metrics
}

// finderResult carries one finder's outcome back to the collector.
type finderResult struct {
	kind string
	ids  []string
	err  error
}

// NewAggregator creates an aggregator over the given registry and catalog.
//
// Parameters:
//   - registry: Live finder set to fan out over
//   - catalog: Candidate catalog used for membership checks and localization
//   - finderTimeout: Per-query finder deadline; <= 0 selects the 5s default
//
// Returns:
//   - *Aggregator: Ready aggregator
//   - error: If registry or catalog is nil
func NewAggregator(registry *Registry, catalog *addon.Catalog, finderTimeout time.Duration) (*Aggregator, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	if finderTimeout <= 0 {
		finderTimeout = defaultFinderTimeout
	}
	return &Aggregator{
		registry: registry,
		catalog:  catalog,
		timeout:  finderTimeout,
		logger:   noopLogger{},
	}, nil
}

// SetLogger sets the logger for the aggregator.
func (a *Aggregator) SetLogger(logger Logger) {
	a.logger = logger
}

// SetMetrics sets the telemetry sink for query measurements.
func (a *Aggregator) SetMetrics(metrics Metrics) {
	a.metrics = metrics
}

// GetSuggestedAddons queries every registered finder and returns the
// deduplicated union of positive matches, localized for the given locale
// and sorted by add-on ID.
//
// Failure containment, per finder:
//   - an error return is logged and treated as "no match"
//   - a panic is recovered and treated the same way
//   - a finder still running at the deadline is abandoned (its goroutine
//     finishes in the background and the late result is discarded)
//
// IDs a finder reports that are not in the catalog are dropped, so the
// result is always a subset of the configured candidate set.
func (a *Aggregator) GetSuggestedAddons(ctx context.Context, locale string) []Suggestion {
	start := time.Now()
	snapshot := a.registry.Snapshot()

	results := make(chan finderResult, len(snapshot))
	for _, f := range snapshot {
		go a.invokeFinder(f, results)
	}

	deadline := time.NewTimer(a.timeout)
	defer deadline.Stop()

	matched := make(map[string]struct{})
	for pending := len(snapshot); pending > 0; pending-- {
		select {
		case res := <-results:
			a.mergeResult(res, matched)
		case <-deadline.C:
			a.logger.Warn("suggestion query deadline reached, abandoning slow finders",
				"pending", pending,
				"timeout", a.timeout,
			)
			pending = 0
		case <-ctx.Done():
			a.logger.Debug("suggestion query cancelled", "error", ctx.Err())
			pending = 0
		}
	}

	suggestions := a.localize(matched, locale)

	if a.metrics != nil {
		a.metrics.RecordSuggestionQuery(time.Since(start), len(snapshot), len(suggestions))
	}
	a.logger.Debug("suggestion query complete",
		"finders", len(snapshot),
		"suggestions", len(suggestions),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return suggestions
}

// invokeFinder calls one finder with panic recovery and reports the outcome.
func (a *Aggregator) invokeFinder(f Finder, results chan<- finderResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("finder panic recovered", "kind", f.Kind(), "panic", r)
			results <- finderResult{kind: f.Kind(), err: ErrFinderPanic}
		}
	}()

	ids, err := f.GetSuggestedAddons()
	results <- finderResult{kind: f.Kind(), ids: ids, err: err}
}

// mergeResult folds one finder's outcome into the matched set.
func (a *Aggregator) mergeResult(res finderResult, matched map[string]struct{}) {
	if res.err != nil {
		a.logger.Warn("finder lookup failed", "kind", res.kind, "error", res.err)
		if a.metrics != nil {
			a.metrics.RecordFinderFailure(res.kind)
		}
		return
	}
	for _, id := range res.ids {
		if _, err := a.catalog.Get(id); err != nil {
			a.logger.Warn("finder reported unknown add-on id, dropped",
				"kind", res.kind,
				"id", id,
			)
			continue
		}
		matched[id] = struct{}{}
	}
}

// localize converts the matched ID set into sorted, localized suggestions.
func (a *Aggregator) localize(matched map[string]struct{}, locale string) []Suggestion {
	ids := make([]string, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	suggestions := make([]Suggestion, 0, len(ids))
	for _, id := range ids {
		entry, err := a.catalog.Get(id)
		if err != nil {
			continue
		}
		name, description := entry.Localized(locale)
		suggestions = append(suggestions, Suggestion{
			ID:          id,
			Name:        name,
			Description: description,
		})
	}
	return suggestions
}
