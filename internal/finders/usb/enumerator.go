package usb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// DeviceInfo describes one enumerated USB serial device.
type DeviceInfo struct {
	// Node is the device identity, e.g. "ttyUSB0".
	Node string

	// Properties carries the USB descriptor attributes:
	// vendor_id, product_id, manufacturer, product, serial.
	Properties map[string]string
}

// Enumerator lists the USB serial devices currently attached. The bus
// access itself is a black box; the default implementation reads sysfs,
// tests inject a fake.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]DeviceInfo, error)
}

// sysfs layout constants.
const (
	// sysfsSerialPath lists one entry per attached USB serial interface.
	sysfsSerialPath = "/sys/bus/usb-serial/devices"

	// maxParentClimb bounds the walk from the interface directory up to
	// the USB device directory holding the descriptor attributes.
	maxParentClimb = 4
)

// descriptor attribute files read for each device.
var descriptorAttrs = map[string]string{
	"idVendor":     "vendor_id",
	"idProduct":    "product_id",
	"manufacturer": "manufacturer",
	"product":      "product",
	"serial":       "serial",
}

// SysfsEnumerator enumerates USB serial devices from the Linux sysfs
// tree. Each entry under /sys/bus/usb-serial/devices is resolved to its
// USB device directory and the standard descriptor attributes are read.
type SysfsEnumerator struct {
	// Root overrides the sysfs path; used by tests. Empty means the
	// real /sys tree.
	Root string
}

// Enumerate lists attached USB serial devices with their descriptor
// properties. A missing sysfs tree (no serial devices, non-Linux host)
// yields an empty list, not an error.
func (e *SysfsEnumerator) Enumerate(ctx context.Context) ([]DeviceInfo, error) {
	root := e.Root
	if root == "" {
		root = sysfsSerialPath
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var devices []DeviceInfo
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}

		resolved, err := filepath.EvalSymlinks(filepath.Join(root, entry.Name()))
		if err != nil {
			continue
		}

		devices = append(devices, DeviceInfo{
			Node:       entry.Name(),
			Properties: readDescriptors(resolved),
		})
	}
	return devices, nil
}

// readDescriptors walks from the interface directory up towards the USB
// device directory and reads the descriptor attribute files it finds.
func readDescriptors(dir string) map[string]string {
	properties := make(map[string]string)
	for climb := 0; climb < maxParentClimb; climb++ {
		for attr, key := range descriptorAttrs {
			if _, ok := properties[key]; ok {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, attr))
			if err != nil {
				continue
			}
			properties[key] = strings.TrimSpace(string(data))
		}
		// vendor and product IDs live in the same directory; once seen,
		// the walk is done.
		if _, ok := properties["vendor_id"]; ok {
			break
		}
		dir = filepath.Dir(dir)
	}
	return properties
}
