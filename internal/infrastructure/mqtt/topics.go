package mqtt

import "fmt"

// Topic prefixes for the add-on suggestion service.
//
// The service lives under its own branch of the site-wide hierarchy so
// its traffic never collides with the core runtime or bridge topics:
// graylogic/addons/{category}/...
const (
	// TopicPrefix is the base for all add-on service topics.
	TopicPrefix = "graylogic/addons"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/addons/system"

	// TopicPrefixEvent is the base for event topics.
	TopicPrefixEvent = "graylogic/addons/event"
)

// Topics provides builders for the service's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.SystemStatus()
//	// Returns: "graylogic/addons/system/status"
//
// Device announcement topics are not built here: the patterns the MQTT
// finder listens on come from the add-on catalog, not from this package.
type Topics struct{}

// SystemStatus returns the service status topic.
// Online/offline presence, including the LWT, is published here.
//
// Example: graylogic/addons/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SuggestionsChanged returns the topic for suggestion change events.
// A message here tells interested clients to refetch their suggestions.
//
// Example: graylogic/addons/event/suggestions
func (Topics) SuggestionsChanged() string {
	return fmt.Sprintf("%s/suggestions", TopicPrefixEvent)
}

// FinderStatus returns the topic for per-finder lifecycle events.
//
// Example: graylogic/addons/event/finder/mdns
func (Topics) FinderStatus(kind string) string {
	return fmt.Sprintf("%s/finder/%s", TopicPrefixEvent, kind)
}

// AllEvents returns a pattern matching all service events.
//
// Pattern: graylogic/addons/event/#
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/#", TopicPrefixEvent)
}

// AllTopics returns a pattern matching all add-on service topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: graylogic/addons/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
