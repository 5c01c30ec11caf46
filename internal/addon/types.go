package addon

import (
	"regexp"
	"strings"
)

// FinderKind identifies which discovery finder evaluates a discovery method.
type FinderKind string

// Supported finder kinds.
const (
	// FinderMDNS matches services announced via multicast DNS.
	FinderMDNS FinderKind = "mdns"

	// FinderMQTT matches announcements observed on the MQTT broker.
	FinderMQTT FinderKind = "mqtt"

	// FinderUSB matches devices enumerated on the USB/serial bus.
	FinderUSB FinderKind = "usb"
)

// ValidFinderKind reports whether the kind is one of the supported finders.
func ValidFinderKind(kind FinderKind) bool {
	switch kind {
	case FinderMDNS, FinderMQTT, FinderUSB:
		return true
	default:
		return false
	}
}

// MatchProperty is a (property name, regular expression) pair evaluated
// against the property map of a discovered service.
//
// The expression must match the entire property value; patterns are
// anchored when compiled during catalog validation.
type MatchProperty struct {
	// Name is the service property to test (e.g. "ty" for an mDNS TXT key).
	Name string `yaml:"name"`

	// Regex is the pattern the property value must match in full.
	Regex string `yaml:"regex"`

	// pattern is the compiled, anchored form of Regex.
	// Populated by compile() during catalog validation.
	pattern *regexp.Regexp
}

// Matches reports whether the value satisfies the property pattern.
// A property whose pattern has not been compiled never matches.
func (p *MatchProperty) Matches(value string) bool {
	if p.pattern == nil {
		return false
	}
	return p.pattern.MatchString(value)
}

// compile builds the anchored pattern from Regex.
func (p *MatchProperty) compile() error {
	pattern, err := regexp.Compile("^(?:" + p.Regex + ")$")
	if err != nil {
		return err
	}
	p.pattern = pattern
	return nil
}

// DiscoveryMethod declares one way an add-on's hardware or service can be
// detected. An add-on may declare several methods across different finders;
// a single positive method is sufficient for a suggestion.
type DiscoveryMethod struct {
	// Finder selects which discovery backend evaluates this method.
	Finder FinderKind `yaml:"finder"`

	// ServiceType is the transport-specific type tag the finder watches:
	// an mDNS service type ("_hue._tcp.local."), an MQTT topic pattern
	// ("homie/+/$homie"), or "serial" for USB enumeration.
	ServiceType string `yaml:"service_type"`

	// MatchProperties are evaluated in declaration order against one
	// discovered service record. A method with no match properties matches
	// as soon as any service of ServiceType has been observed.
	MatchProperties []MatchProperty `yaml:"match_properties,omitempty"`
}

// Addon describes one installable add-on (protocol bridge or device
// integration) together with the discovery methods that hint at its
// presence. Addons are immutable once the catalog has been loaded.
type Addon struct {
	// ID is the unique add-on identifier (e.g. "hue", "zigbee2mqtt").
	ID string `yaml:"id"`

	// Name is the default (English) display name.
	Name string `yaml:"name"`

	// Description is the default display description.
	Description string `yaml:"description,omitempty"`

	// Labels holds per-locale display overrides keyed by BCP 47 language
	// tag ("de", "de-DE", "fr"). Missing locales fall back to the default
	// Name/Description.
	Labels map[string]Label `yaml:"labels,omitempty"`

	// DiscoveryMethods declare how this add-on can be detected.
	// An add-on without methods is valid but never suggested.
	DiscoveryMethods []DiscoveryMethod `yaml:"discovery_methods,omitempty"`
}

// Label is a localized name/description pair.
type Label struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Localized returns the display name and description for the requested
// locale. Lookup order: exact tag, language subtag ("de-DE" → "de"),
// then the default Name/Description.
func (a *Addon) Localized(locale string) (name, description string) {
	name, description = a.Name, a.Description
	if locale == "" || len(a.Labels) == 0 {
		return name, description
	}

	label, ok := a.Labels[locale]
	if !ok {
		if idx := strings.IndexAny(locale, "-_"); idx > 0 {
			label, ok = a.Labels[locale[:idx]]
		}
	}
	if !ok {
		return name, description
	}

	if label.Name != "" {
		name = label.Name
	}
	if label.Description != "" {
		description = label.Description
	}
	return name, description
}

// MethodsFor returns the discovery methods handled by the given finder kind.
func (a *Addon) MethodsFor(kind FinderKind) []DiscoveryMethod {
	var methods []DiscoveryMethod
	for _, m := range a.DiscoveryMethods {
		if m.Finder == kind {
			methods = append(methods, m)
		}
	}
	return methods
}
