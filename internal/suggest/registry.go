package suggest

import (
	"sync"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
)

// Finder is the capability interface every discovery backend implements.
//
// Implementations live in internal/finders and its subpackages; the
// registry and aggregator treat them as black boxes. GetSuggestedAddons
// must be safe to call concurrently with ongoing event ingestion.
type Finder interface {
	// Kind identifies the finder ("mdns", "mqtt", "usb").
	Kind() string

	// SetAddonCandidates installs the candidate set the finder evaluates.
	SetAddonCandidates(candidates []addon.Addon)

	// GetSuggestedAddons returns the IDs of candidates the finder
	// currently believes are present.
	GetSuggestedAddons() ([]string, error)
}

// Registry holds the live set of discovery finders.
//
// Finders are registered and unregistered by component lifecycle (a finder
// is added when its transport is enabled, removed when it shuts down) while
// suggestion queries iterate the set concurrently. The registry therefore
// never locks readers against writers: the finder list is an immutable
// slice swapped atomically on every mutation. Readers take a snapshot and
// traverse it without any lock; a slow finder never serializes the others.
//
// Writers (Add/Remove) coordinate on a small mutex, which is fine because
// registration is rare compared to queries.
type Registry struct {
	finders atomic.Pointer[[]Finder]

	// writeMu serializes mutations; readers never take it.
	writeMu sync.Mutex

	// candidates is pushed to every finder on registration so late-added
	// finders see the same candidate set as the rest.
	candidates []addon.Addon

	logger Logger
}

// NewRegistry creates an empty finder registry.
func NewRegistry() *Registry {
	r := &Registry{logger: noopLogger{}}
	empty := []Finder{}
	r.finders.Store(&empty)
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetAddonCandidates installs the candidate set on all current finders and
// remembers it for finders registered later.
func (r *Registry) SetAddonCandidates(candidates []addon.Addon) {
	r.writeMu.Lock()
	r.candidates = candidates
	snapshot := *r.finders.Load()
	r.writeMu.Unlock()

	for _, f := range snapshot {
		f.SetAddonCandidates(candidates)
	}
}

// Add registers a finder.
//
// The mutation is copy-on-write: queries already iterating the previous
// snapshot are unaffected, and any query started after Add returns sees
// the new finder. Adding an already-registered finder is a no-op.
//
// Returns ErrNilFinder for a nil finder.
func (r *Registry) Add(f Finder) error {
	if f == nil {
		return ErrNilFinder
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := *r.finders.Load()
	for _, existing := range current {
		if existing == f {
			return nil
		}
	}

	next := make([]Finder, len(current)+1)
	copy(next, current)
	next[len(current)] = f
	r.finders.Store(&next)

	if r.candidates != nil {
		f.SetAddonCandidates(r.candidates)
	}
	r.logger.Info("finder registered", "kind", f.Kind(), "finders", len(next))
	return nil
}

// Remove unregisters a finder. Removing a finder that is not registered
// (including a second Remove of the same finder) is a no-op. In-flight
// queries holding an older snapshot may still consult the finder once more;
// that is best-effort by design.
func (r *Registry) Remove(f Finder) {
	if f == nil {
		return
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := *r.finders.Load()
	next := make([]Finder, 0, len(current))
	for _, existing := range current {
		if existing != f {
			next = append(next, existing)
		}
	}
	if len(next) == len(current) {
		return
	}
	r.finders.Store(&next)
	r.logger.Info("finder unregistered", "kind", f.Kind(), "finders", len(next))
}

// Snapshot returns the current finder set as an immutable point-in-time
// slice. The slice is never mutated after being returned; it is safe to
// traverse while concurrent Add/Remove calls occur.
func (r *Registry) Snapshot() []Finder {
	return *r.finders.Load()
}

// Len returns the number of registered finders.
func (r *Registry) Len() int {
	return len(*r.finders.Load())
}

// Logger defines the logging interface used by the suggest package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
