package usb

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
	"github.com/nerrad567/gray-logic-addons/internal/finders"
)

// ServiceType is the service type tag USB discovery methods match on.
const ServiceType = "usb-serial"

// defaultScanInterval is how often the bus is re-enumerated.
const defaultScanInterval = 30 * time.Second

// Config contains USB finder settings.
type Config struct {
	// ScanInterval is how often the bus is re-enumerated.
	// Zero selects the 30 second default.
	ScanInterval time.Duration
}

// Finder discovers add-on candidates by polling the USB serial bus.
//
// Unlike the event-driven finders, USB has no announcement stream: the
// finder re-enumerates attached devices on a fixed interval and submits
// every hit as a ServiceEvent. Match properties target the USB descriptor
// attributes (vendor_id, product_id, manufacturer, product, serial), so a
// catalog entry can suggest, say, a Zigbee add-on whenever a known
// coordinator stick is plugged in.
type Finder struct {
	*finders.BaseFinder

	cfg        Config
	enumerator Enumerator
	logger     finders.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a USB serial finder.
//
// Parameters:
//   - enumerator: Bus enumeration capability; nil selects the sysfs default
//   - cfg: Poll settings
//   - queue: Ingestion queue tuning shared by all finders
func New(enumerator Enumerator, cfg Config, queue finders.Config) *Finder {
	if enumerator == nil {
		enumerator = &SysfsEnumerator{}
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = defaultScanInterval
	}
	return &Finder{
		BaseFinder: finders.NewBase(addon.FinderUSB, queue),
		cfg:        cfg,
		enumerator: enumerator,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the finder and its match-state core.
func (f *Finder) SetLogger(logger finders.Logger) {
	f.logger = logger
	f.BaseFinder.SetLogger(logger)
}

// Start launches the drain loop and the enumeration poller. The first
// scan runs immediately.
func (f *Finder) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return finders.ErrAlreadyStarted
	}
	if err := f.BaseFinder.Start(ctx); err != nil {
		return err
	}

	scanCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.running = true

	f.wg.Add(1)
	go f.scanLoop(scanCtx)
	return nil
}

// Stop terminates the poller and the drain loop. Idempotent.
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

// scanLoop re-enumerates the bus on the configured interval.
func (f *Finder) scanLoop(ctx context.Context) {
	defer f.wg.Done()

	f.scan(ctx)

	ticker := time.NewTicker(f.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.scan(ctx)
		}
	}
}

// scan enumerates attached devices and submits each as an event.
func (f *Finder) scan(ctx context.Context) {
	devices, err := f.enumerator.Enumerate(ctx)
	if err != nil && ctx.Err() == nil {
		f.logger.Warn("usb enumeration failed", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, device := range devices {
		f.Submit(finders.ServiceEvent{
			Key:         device.Node,
			ServiceType: ServiceType,
			Properties:  device.Properties,
			ObservedAt:  now,
		})
	}
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
