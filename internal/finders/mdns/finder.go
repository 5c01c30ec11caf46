package mdns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
	"github.com/nerrad567/gray-logic-addons/internal/finders"
)

// mdnsDomain is the mDNS browse domain.
const mdnsDomain = "local"

// defaultRescanInterval is how often browsers are restarted to re-query
// service types and pick up catalog changes.
const defaultRescanInterval = 5 * time.Minute

// Config contains mDNS finder settings.
type Config struct {
	// Interface restricts browsing to one network interface.
	// Empty means all interfaces.
	Interface string

	// RescanInterval is how often active browsers are restarted.
	// Zero selects the 5 minute default.
	RescanInterval time.Duration
}

// Finder discovers add-on candidates via multicast DNS service browsing.
//
// It browses every mDNS service type declared by the candidate catalog
// (e.g. "_hue._tcp", "_printer._tcp") and converts each announcement into
// a ServiceEvent: the instance name keys the record and the TXT records
// become the property map that match properties are evaluated against.
//
// The zeroconf library owns the wire protocol; this finder only adapts its
// callback channels onto the ingestion queue, so an announcement storm
// never blocks the multicast receive loop.
type Finder struct {
	*finders.BaseFinder

	cfg    Config
	logger finders.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an mDNS finder.
//
// Parameters:
//   - cfg: mDNS settings (interface, rescan interval)
//   - queue: Ingestion queue tuning shared by all finders
func New(cfg Config, queue finders.Config) *Finder {
	if cfg.RescanInterval <= 0 {
		cfg.RescanInterval = defaultRescanInterval
	}
	return &Finder{
		BaseFinder: finders.NewBase(addon.FinderMDNS, queue),
		cfg:        cfg,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the finder and its match-state core.
func (f *Finder) SetLogger(logger finders.Logger) {
	f.logger = logger
	f.BaseFinder.SetLogger(logger)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Start launches the drain loop and one browser per candidate service
// type. Candidates should be installed before Start; types declared by
// candidates added later are picked up at the next rescan.
func (f *Finder) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return finders.ErrAlreadyStarted
	}
	if err := f.BaseFinder.Start(ctx); err != nil {
		return err
	}

	browseCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.running = true

	f.wg.Add(1)
	go f.browseLoop(browseCtx)
	return nil
}

// Stop terminates browsing and the drain loop. Idempotent.
func (f *Finder) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return
	}
	f.cancel()
	f.wg.Wait()
	f.BaseFinder.Stop()
	f.running = false
}

// browseLoop runs browsers for the current service types and restarts them
// on the rescan interval.
func (f *Finder) browseLoop(ctx context.Context) {
	defer f.wg.Done()

	for {
		cycleCtx, cancelCycle := context.WithTimeout(ctx, f.cfg.RescanInterval)
		f.browseCycle(cycleCtx)
		cancelCycle()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// browseCycle starts one browser per declared service type and blocks
// until the cycle context expires.
func (f *Finder) browseCycle(ctx context.Context) {
	types := f.serviceTypes()
	if len(types) == 0 {
		<-ctx.Done()
		return
	}

	var cycle sync.WaitGroup
	for _, serviceType := range types {
		cycle.Add(1)
		go func(serviceType string) {
			defer cycle.Done()
			f.browse(ctx, serviceType)
		}(serviceType)
	}
	cycle.Wait()
}

// serviceTypes derives the distinct mDNS service types from the candidate
// subset, in candidate order.
func (f *Finder) serviceTypes() []string {
	seen := make(map[string]struct{})
	var types []string
	for _, c := range f.Candidates() {
		for _, m := range c.MethodsFor(addon.FinderMDNS) {
			if _, ok := seen[m.ServiceType]; ok {
				continue
			}
			seen[m.ServiceType] = struct{}{}
			types = append(types, m.ServiceType)
		}
	}
	return types
}

// browse runs one zeroconf browser for a service type until the context
// is cancelled, submitting every announcement to the ingestion queue.
func (f *Finder) browse(ctx context.Context, serviceType string) {
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				f.Submit(entryToEvent(serviceType, entry))
			case <-removed:
				// Records are only cleared on Reset; disappearing
				// services simply stop refreshing their LastSeen.
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := zeroconf.Browse(ctx, serviceType, mdnsDomain, entries, removed, f.browserOptions()...); err != nil && ctx.Err() == nil {
		// Browse failures (no multicast route, interface down) are
		// per-type and transient; the next rescan retries.
		f.logger.Warn("mDNS browse failed", "service_type", serviceType, "error", err)
	}
}

// browserOptions builds zeroconf client options from config.
func (f *Finder) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if f.cfg.Interface != "" {
		if iface, err := net.InterfaceByName(f.cfg.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// entryToEvent converts a zeroconf service entry into a discovery event.
// TXT records become the property map; instance, host, and port are added
// under reserved keys so match properties can target them too.
func entryToEvent(serviceType string, entry *zeroconf.ServiceEntry) finders.ServiceEvent {
	properties := make(map[string]string, len(entry.Text)+3)
	for _, txt := range entry.Text {
		if txt == "" {
			continue
		}
		key, value, found := strings.Cut(txt, "=")
		if !found {
			// Boolean TXT attribute (present, no value).
			properties[txt] = ""
			continue
		}
		properties[key] = value
	}
	properties["instance"] = entry.Instance
	properties["host"] = entry.HostName
	properties["port"] = fmt.Sprintf("%d", entry.Port)

	return finders.ServiceEvent{
		Key:         entry.Instance + "." + serviceType,
		ServiceType: serviceType,
		Properties:  properties,
		ObservedAt:  time.Now().UTC(),
	}
}
