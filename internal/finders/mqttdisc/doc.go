// Package mqttdisc implements the MQTT broker-announcement discovery
// finder.
//
// Smart-home ecosystems that bridge through MQTT (Homie devices,
// Zigbee2MQTT, Tasmota) publish retained presence announcements. By
// subscribing to the topic patterns declared in the add-on catalog, the
// finder learns what is on the bus without probing anything: the broker
// replays retained messages on subscribe and delivers live ones as they
// arrive. The broker connection itself belongs to the infrastructure MQTT
// client; this package only consumes its Subscribe/Unsubscribe surface.
package mqttdisc
