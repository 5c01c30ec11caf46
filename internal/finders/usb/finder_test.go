package usb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
	"github.com/nerrad567/gray-logic-addons/internal/finders"
)

var fastQueue = finders.Config{QueueSize: 64, DrainInterval: 10 * time.Millisecond, DrainThreshold: 8}

// fakeEnumerator returns a scripted device list.
type fakeEnumerator struct {
	mu      sync.Mutex
	devices []DeviceInfo
	err     error
	scans   int
}

func (e *fakeEnumerator) Enumerate(context.Context) ([]DeviceInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scans++
	return e.devices, e.err
}

func (e *fakeEnumerator) scanCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scans
}

func testCandidates(t *testing.T) []addon.Addon {
	t.Helper()
	catalog, err := addon.ParseCatalog([]byte(`
addons:
  - id: zigbee2mqtt
    name: Zigbee2MQTT
    discovery_methods:
      - finder: usb
        service_type: usb-serial
        match_properties:
          - name: vendor_id
            regex: "0451"
          - name: product_id
            regex: "16a8"
  - id: zwavejs
    name: Z-Wave JS
    discovery_methods:
      - finder: usb
        service_type: usb-serial
        match_properties:
          - name: manufacturer
            regex: "(?i)(aeotec|silicon labs|zooz)( .*)?"
`))
	if err != nil {
		t.Fatalf("parsing candidates: %v", err)
	}
	return catalog.Addons()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestFinder_SuggestsOnAttachedStick(t *testing.T) {
	enumerator := &fakeEnumerator{devices: []DeviceInfo{
		{
			Node: "ttyUSB0",
			Properties: map[string]string{
				"vendor_id":    "0451",
				"product_id":   "16a8",
				"manufacturer": "Texas Instruments",
			},
		},
	}}

	f := New(enumerator, Config{ScanInterval: time.Hour}, fastQueue)
	f.SetAddonCandidates(testCandidates(t))
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("starting finder: %v", err)
	}
	defer f.Stop()

	// The first scan runs immediately; the hour-long interval never fires
	waitFor(t, time.Second, func() bool {
		ids, _ := f.GetSuggestedAddons()
		return len(ids) == 1 && ids[0] == "zigbee2mqtt"
	}, "zigbee2mqtt was not suggested for the attached coordinator")
}

func TestFinder_ManufacturerMatchCaseInsensitive(t *testing.T) {
	enumerator := &fakeEnumerator{devices: []DeviceInfo{
		{
			Node: "ttyACM0",
			Properties: map[string]string{
				"vendor_id":    "0658",
				"product_id":   "0200",
				"manufacturer": "AEOTEC Limited",
			},
		},
	}}

	f := New(enumerator, Config{ScanInterval: time.Hour}, fastQueue)
	f.SetAddonCandidates(testCandidates(t))
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("starting finder: %v", err)
	}
	defer f.Stop()

	waitFor(t, time.Second, func() bool {
		ids, _ := f.GetSuggestedAddons()
		return len(ids) == 1 && ids[0] == "zwavejs"
	}, "zwavejs was not suggested for the Aeotec stick")
}

func TestFinder_RescanPicksUpNewDevice(t *testing.T) {
	enumerator := &fakeEnumerator{}

	f := New(enumerator, Config{ScanInterval: 20 * time.Millisecond}, fastQueue)
	f.SetAddonCandidates(testCandidates(t))
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("starting finder: %v", err)
	}
	defer f.Stop()

	waitFor(t, time.Second, func() bool {
		return enumerator.scanCount() >= 1
	}, "first scan did not run")

	if ids, _ := f.GetSuggestedAddons(); len(ids) != 0 {
		t.Fatalf("expected no suggestions with empty bus, got %v", ids)
	}

	// Plug in the stick between scans
	enumerator.mu.Lock()
	enumerator.devices = []DeviceInfo{{
		Node:       "ttyUSB0",
		Properties: map[string]string{"vendor_id": "0451", "product_id": "16a8"},
	}}
	enumerator.mu.Unlock()

	waitFor(t, time.Second, func() bool {
		ids, _ := f.GetSuggestedAddons()
		return len(ids) == 1 && ids[0] == "zigbee2mqtt"
	}, "rescan did not pick up the new device")
}

func TestFinder_EnumerationErrorTolerated(t *testing.T) {
	enumerator := &fakeEnumerator{err: errors.New("sysfs unavailable")}

	f := New(enumerator, Config{ScanInterval: time.Hour}, fastQueue)
	f.SetAddonCandidates(testCandidates(t))
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("expected start to tolerate enumeration failure, got %v", err)
	}
	defer f.Stop()

	waitFor(t, time.Second, func() bool {
		return enumerator.scanCount() >= 1
	}, "scan did not run")

	if ids, _ := f.GetSuggestedAddons(); len(ids) != 0 {
		t.Errorf("expected no suggestions, got %v", ids)
	}
}

func TestFinder_StartStop(t *testing.T) {
	f := New(&fakeEnumerator{}, Config{ScanInterval: time.Hour}, fastQueue)
	f.SetAddonCandidates(testCandidates(t))

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("starting finder: %v", err)
	}
	if err := f.Start(context.Background()); !errors.Is(err, finders.ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	f.Stop()
	f.Stop() // idempotent
}

// writeSysfsDevice lays out one fake usb-serial entry: a symlink under the
// devices dir pointing into a device tree holding the descriptor files.
func writeSysfsDevice(t *testing.T, root, node string, attrs map[string]string) {
	t.Helper()

	deviceDir := filepath.Join(root, "tree", "usb1", "1-1")
	interfaceDir := filepath.Join(deviceDir, "1-1:1.0", node)
	if err := os.MkdirAll(interfaceDir, 0o755); err != nil {
		t.Fatalf("creating device tree: %v", err)
	}
	for attr, value := range attrs {
		if err := os.WriteFile(filepath.Join(deviceDir, attr), []byte(value+"\n"), 0o600); err != nil {
			t.Fatalf("writing attribute %s: %v", attr, err)
		}
	}

	devicesDir := filepath.Join(root, "devices")
	if err := os.MkdirAll(devicesDir, 0o755); err != nil {
		t.Fatalf("creating devices dir: %v", err)
	}
	if err := os.Symlink(interfaceDir, filepath.Join(devicesDir, node)); err != nil {
		t.Fatalf("creating device symlink: %v", err)
	}
}

func TestSysfsEnumerator(t *testing.T) {
	root := t.TempDir()
	writeSysfsDevice(t, root, "ttyUSB0", map[string]string{
		"idVendor":     "0451",
		"idProduct":    "16a8",
		"manufacturer": "Texas Instruments",
		"product":      "CC2531 USB Dongle",
	})

	enumerator := &SysfsEnumerator{Root: filepath.Join(root, "devices")}
	devices, err := enumerator.Enumerate(context.Background())
	if err != nil {
		t.Fatalf("enumerating: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}

	device := devices[0]
	if device.Node != "ttyUSB0" {
		t.Errorf("expected node ttyUSB0, got %q", device.Node)
	}
	if device.Properties["vendor_id"] != "0451" {
		t.Errorf("expected vendor_id 0451, got %q", device.Properties["vendor_id"])
	}
	if device.Properties["product_id"] != "16a8" {
		t.Errorf("expected product_id 16a8, got %q", device.Properties["product_id"])
	}
	if device.Properties["manufacturer"] != "Texas Instruments" {
		t.Errorf("expected trimmed manufacturer, got %q", device.Properties["manufacturer"])
	}
	if device.Properties["product"] != "CC2531 USB Dongle" {
		t.Errorf("unexpected product, got %q", device.Properties["product"])
	}
}

func TestSysfsEnumerator_MissingTree(t *testing.T) {
	enumerator := &SysfsEnumerator{Root: filepath.Join(t.TempDir(), "nonexistent")}
	devices, err := enumerator.Enumerate(context.Background())
	if err != nil {
		t.Fatalf("expected missing tree to yield no error, got %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("expected no devices, got %d", len(devices))
	}
}
