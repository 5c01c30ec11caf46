package finders

import "time"

// ServiceEvent is one observation delivered by a transport adapter (an mDNS
// announcement, a broker message, a USB enumeration hit).
//
// Events are value types; the transport callback hands them to Submit() and
// must not retain the Properties map afterwards.
type ServiceEvent struct {
	// Key is the natural identity of the observed service: the mDNS
	// instance name, the announcement topic, or the device node path.
	// Events for the same key overwrite each other, last write wins.
	Key string

	// ServiceType is the transport-specific type tag, matched against
	// DiscoveryMethod.ServiceType (e.g. "_hue._tcp.local.").
	ServiceType string

	// Properties is the discovered property map (TXT records, payload
	// fields, sysfs attributes). May be nil.
	Properties map[string]string

	// ObservedAt is when the transport saw the service. The drain loop
	// stamps the current time if zero.
	ObservedAt time.Time
}

// ServiceRecord is the materialized per-key match-state derived from
// ServiceEvents. Records are immutable once stored; an update replaces the
// whole record, so a concurrent reader sees either the old or the new
// record, never a mix.
type ServiceRecord struct {
	Key         string
	ServiceType string
	Properties  map[string]string
	FirstSeen   time.Time
	LastSeen    time.Time
	TimesSeen   int64
}

// Property returns the named property value, or "" if absent.
func (r *ServiceRecord) Property(name string) string {
	if r.Properties == nil {
		return ""
	}
	return r.Properties[name]
}

// Observer receives materialized service records as the drain loop applies
// them. Implementations must not block; the inventory recorder buffers
// internally.
type Observer interface {
	ObserveService(kind string, record ServiceRecord)
}

// Logger defines the logging interface used by finders.
// This allows different logging implementations to be used.
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
