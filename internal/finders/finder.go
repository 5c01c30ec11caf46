package finders

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
)

// Configuration defaults for the ingestion queue.
const (
	// defaultQueueSize is the ingestion queue capacity. Sized for a full
	// network re-announcement burst without producer blocking.
	defaultQueueSize = 1024

	// defaultDrainInterval is how often the drain loop materializes
	// queued events into the record map.
	defaultDrainInterval = 250 * time.Millisecond

	// defaultDrainThreshold is the queue depth that triggers an immediate
	// drain ahead of the interval tick.
	defaultDrainThreshold = 64
)

// Config tunes the per-finder event ingestion queue.
// Zero values select the defaults above.
type Config struct {
	// QueueSize is the ingestion queue capacity. Events submitted while
	// the queue is full are dropped and counted, never blocked on.
	QueueSize int

	// DrainInterval is the fixed interval between drain cycles.
	DrainInterval time.Duration

	// DrainThreshold is the queue depth that wakes the drain loop early.
	DrainThreshold int
}

// withDefaults fills in zero fields.
func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.DrainInterval <= 0 {
		c.DrainInterval = defaultDrainInterval
	}
	if c.DrainThreshold <= 0 {
		c.DrainThreshold = defaultDrainThreshold
	}
	return c
}

// Stats are per-finder ingestion counters for the status endpoint and
// telemetry writer.
type Stats struct {
	EventsProcessed int64
	EventsDropped   int64
	EventsMalformed int64
	Records         int
	LastDrain       time.Time
}

// BaseFinder implements the shared match-state machinery behind every
// discovery finder: a bounded event ingestion queue, a background drain
// loop, and an atomically swapped service-record map.
//
// Transport adapters (mDNS browser, MQTT subscriber, USB enumerator) feed
// observations in via Submit(); suggestion queries read the materialized
// map via GetSuggestedAddons(). The two sides never share a lock:
//
//   - Submit() is a non-blocking enqueue on a buffered channel. The
//     transport callback thread is never stalled by bookkeeping.
//   - The drain loop applies queued events to a fresh copy of the record
//     map and swaps it in atomically. Readers hold the previous snapshot
//     and lag the queue by at most one drain cycle.
//
// Updates for the same service key are applied in submission order; a
// reader sees each record either pre- or post-update, never torn.
type BaseFinder struct {
	kind addon.FinderKind
	cfg  Config

	// candidates holds the subset of the catalog that declares at least
	// one discovery method for this finder kind.
	candidates atomic.Pointer[[]addon.Addon]

	// records is the materialized match-state, swapped wholesale on drain.
	// Readers load it lock-free; recordsMu serializes the writers (the
	// drain loop's load-modify-store and Reset) so a reset can never be
	// overwritten by a drain cycle that read the map before it.
	records   atomic.Pointer[map[string]*ServiceRecord]
	recordsMu sync.Mutex

	events chan ServiceEvent
	kick   chan struct{}

	processed atomic.Int64
	dropped   atomic.Int64
	malformed atomic.Int64
	lastDrain atomic.Int64 // unix nanos

	logger   Logger
	loggerMu sync.RWMutex

	observer   Observer
	observerMu sync.RWMutex

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewBase creates the shared finder core for the given kind.
// Concrete finders embed the result and wire their transport into Submit().
func NewBase(kind addon.FinderKind, cfg Config) *BaseFinder {
	cfg = cfg.withDefaults()
	f := &BaseFinder{
		kind:   kind,
		cfg:    cfg,
		events: make(chan ServiceEvent, cfg.QueueSize),
		kick:   make(chan struct{}, 1),
		logger: noopLogger{},
	}
	empty := make(map[string]*ServiceRecord)
	f.records.Store(&empty)
	none := []addon.Addon{}
	f.candidates.Store(&none)
	return f
}

// Kind returns the finder kind ("mdns", "mqtt", "usb").
func (f *BaseFinder) Kind() string {
	return string(f.kind)
}

// SetLogger sets the logger for the finder.
func (f *BaseFinder) SetLogger(logger Logger) {
	f.loggerMu.Lock()
	f.logger = logger
	f.loggerMu.Unlock()
}

// SetObserver sets the observer notified of each materialized record.
// Used to feed the persistent service inventory.
func (f *BaseFinder) SetObserver(observer Observer) {
	f.observerMu.Lock()
	f.observer = observer
	f.observerMu.Unlock()
}

// SetAddonCandidates installs the candidate set this finder evaluates.
// Only candidates declaring at least one discovery method for this finder
// kind are retained. The set is swapped atomically; a concurrent
// GetSuggestedAddons sees either the old or the new set.
func (f *BaseFinder) SetAddonCandidates(candidates []addon.Addon) {
	kept := make([]addon.Addon, 0, len(candidates))
	for _, c := range candidates {
		if len(c.MethodsFor(f.kind)) > 0 {
			kept = append(kept, c)
		}
	}
	f.candidates.Store(&kept)
	f.log().Debug("candidates set", "finder", f.kind, "candidates", len(kept))
}

// Candidates returns the retained candidate subset.
// Concrete finders derive their browse/subscribe targets from it.
func (f *BaseFinder) Candidates() []addon.Addon {
	return *f.candidates.Load()
}

// Submit enqueues a discovery event. It never blocks: if the queue is
// full the event is dropped and counted. Safe to call from any transport
// callback thread, before or after Start.
func (f *BaseFinder) Submit(event ServiceEvent) {
	select {
	case f.events <- event:
	default:
		f.dropped.Add(1)
		f.log().Debug("ingestion queue full, event dropped",
			"finder", f.kind,
			"key", event.Key,
		)
		return
	}

	// Wake the drain loop early once the backlog crosses the threshold.
	if len(f.events) >= f.cfg.DrainThreshold {
		select {
		case f.kick <- struct{}{}:
		default:
		}
	}
}

// Start launches the background drain loop.
// Returns ErrAlreadyStarted if the finder is already running.
func (f *BaseFinder) Start(ctx context.Context) error {
	f.runMu.Lock()
	defer f.runMu.Unlock()

	if f.running {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	f.running = true

	go f.drainLoop(loopCtx)
	return nil
}

// Stop terminates the drain loop and waits for it to exit.
// Queued events that have not been drained are discarded. Stop is
// idempotent.
func (f *BaseFinder) Stop() {
	f.runMu.Lock()
	defer f.runMu.Unlock()

	if !f.running {
		return
	}
	f.cancel()
	<-f.done
	f.running = false
}

// Reset clears the materialized match-state. Queued events continue to be
// drained into the fresh map.
func (f *BaseFinder) Reset() {
	empty := make(map[string]*ServiceRecord)
	f.recordsMu.Lock()
	f.records.Store(&empty)
	f.recordsMu.Unlock()
	f.log().Debug("match-state reset", "finder", f.kind)
}

// GetSuggestedAddons returns the IDs of candidates for which at least one
// discovery method matches the current match-state. The result preserves
// candidate order and is always a subset of the installed candidate set.
func (f *BaseFinder) GetSuggestedAddons() ([]string, error) {
	candidates := *f.candidates.Load()
	records := *f.records.Load()

	var suggested []string
	for i := range candidates {
		c := &candidates[i]
		for _, m := range c.MethodsFor(f.kind) {
			if methodMatches(&m, records) {
				suggested = append(suggested, c.ID)
				break
			}
		}
	}
	return suggested, nil
}

// Records returns a point-in-time copy of the materialized service records.
func (f *BaseFinder) Records() []ServiceRecord {
	records := *f.records.Load()
	out := make([]ServiceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	return out
}

// Stats returns the ingestion counters.
func (f *BaseFinder) Stats() Stats {
	records := *f.records.Load()
	return Stats{
		EventsProcessed: f.processed.Load(),
		EventsDropped:   f.dropped.Load(),
		EventsMalformed: f.malformed.Load(),
		Records:         len(records),
		LastDrain:       time.Unix(0, f.lastDrain.Load()),
	}
}

// methodMatches reports whether any single service record satisfies the
// discovery method: the record's type must equal the method's service type
// and every match property pattern must match the corresponding record
// property. A method without match properties matches as soon as any
// record of its service type exists.
func methodMatches(m *addon.DiscoveryMethod, records map[string]*ServiceRecord) bool {
	for _, r := range records {
		if r.ServiceType != m.ServiceType {
			continue
		}
		if propertiesMatch(m.MatchProperties, r) {
			return true
		}
	}
	return false
}

// propertiesMatch checks every match property against one record.
// All properties must match within the same record; a property the record
// never announced fails the method even when its pattern accepts "".
func propertiesMatch(props []addon.MatchProperty, r *ServiceRecord) bool {
	for i := range props {
		value, ok := r.Properties[props[i].Name]
		if !ok || !props[i].Matches(value) {
			return false
		}
	}
	return true
}

// drainLoop is the single consumer of the ingestion queue. It wakes on the
// configured interval or on an early kick, drains everything queued, and
// swaps the updated record map in atomically.
func (f *BaseFinder) drainLoop(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(f.cfg.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final drain so nothing submitted before shutdown is lost
			// from the persistent inventory.
			f.drain()
			return
		case <-ticker.C:
			f.drain()
		case <-f.kick:
			f.drain()
		}
	}
}

// drain applies all currently queued events to a fresh copy of the record
// map, preserving per-key submission order, then swaps the copy in.
func (f *BaseFinder) drain() {
	var batch []ServiceEvent
	for {
		select {
		case ev := <-f.events:
			batch = append(batch, ev)
		default:
			f.applyBatch(batch)
			return
		}
	}
}

// applyBatch materializes a batch of events. Malformed events (missing key
// or service type) are dropped and counted; they never corrupt the map or
// halt the loop.
func (f *BaseFinder) applyBatch(batch []ServiceEvent) {
	f.lastDrain.Store(time.Now().UnixNano())
	if len(batch) == 0 {
		return
	}

	f.recordsMu.Lock()
	defer f.recordsMu.Unlock()

	current := *f.records.Load()
	next := make(map[string]*ServiceRecord, len(current)+len(batch))
	for k, v := range current {
		next[k] = v
	}

	var applied []*ServiceRecord
	for _, ev := range batch {
		if ev.Key == "" || ev.ServiceType == "" {
			f.malformed.Add(1)
			f.log().Warn("malformed discovery event dropped",
				"finder", f.kind,
				"key", ev.Key,
				"service_type", ev.ServiceType,
			)
			continue
		}

		observedAt := ev.ObservedAt
		if observedAt.IsZero() {
			observedAt = time.Now().UTC()
		}

		record := &ServiceRecord{
			Key:         ev.Key,
			ServiceType: ev.ServiceType,
			Properties:  ev.Properties,
			FirstSeen:   observedAt,
			LastSeen:    observedAt,
			TimesSeen:   1,
		}
		if prev, ok := next[ev.Key]; ok {
			record.FirstSeen = prev.FirstSeen
			record.TimesSeen = prev.TimesSeen + 1
		}
		next[ev.Key] = record
		applied = append(applied, record)
		f.processed.Add(1)
	}

	f.records.Store(&next)

	if len(applied) > 0 {
		f.notifyObserver(applied)
		f.log().Debug("drain cycle complete",
			"finder", f.kind,
			"applied", len(applied),
			"records", len(next),
		)
	}
}

// notifyObserver forwards applied records to the observer, if any.
func (f *BaseFinder) notifyObserver(applied []*ServiceRecord) {
	f.observerMu.RLock()
	observer := f.observer
	f.observerMu.RUnlock()
	if observer == nil {
		return
	}
	for _, r := range applied {
		observer.ObserveService(string(f.kind), *r)
	}
}

// log returns the current logger.
func (f *BaseFinder) log() Logger {
	f.loggerMu.RLock()
	defer f.loggerMu.RUnlock()
	return f.logger
}
