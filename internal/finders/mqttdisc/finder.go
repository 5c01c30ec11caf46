package mqttdisc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
	"github.com/nerrad567/gray-logic-addons/internal/finders"
)

// subscribeQoS is the QoS level for announcement subscriptions.
// At-least-once so retained announcements survive a broker restart.
const subscribeQoS = 1

// Subscriber is the broker capability the finder consumes. Satisfied by
// the infrastructure MQTT client; mocked in tests.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	Unsubscribe(topic string) error
}

// Finder discovers add-on candidates from announcements on the MQTT
// broker.
//
// Ecosystems like Homie ("homie/+/$homie") and Zigbee2MQTT
// ("zigbee2mqtt/bridge/state") publish retained presence messages; the
// broker replays them on subscribe, so simply subscribing to every topic
// pattern the catalog declares yields an immediate inventory of what is
// on the bus. Each message becomes a ServiceEvent keyed by its concrete
// topic; the subscribed pattern is the service type that discovery
// methods match on.
//
// Message handlers run on the MQTT client's callback goroutines and only
// perform a non-blocking Submit, so a chatty broker never backs up the
// client's receive path.
type Finder struct {
	*finders.BaseFinder

	subscriber Subscriber
	logger     finders.Logger

	mu         sync.Mutex
	running    bool
	subscribed []string
}

// New creates a broker-announcement finder.
//
// Parameters:
//   - subscriber: Broker subscription capability (the MQTT client)
//   - queue: Ingestion queue tuning shared by all finders
func New(subscriber Subscriber, queue finders.Config) *Finder {
	return &Finder{
		BaseFinder: finders.NewBase(addon.FinderMQTT, queue),
		subscriber: subscriber,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the finder and its match-state core.
func (f *Finder) SetLogger(logger finders.Logger) {
	f.logger = logger
	f.BaseFinder.SetLogger(logger)
}

// Start launches the drain loop and subscribes to every announcement
// topic pattern the candidate set declares. Candidates must be installed
// before Start.
func (f *Finder) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return finders.ErrAlreadyStarted
	}
	if err := f.BaseFinder.Start(ctx); err != nil {
		return err
	}

	for _, pattern := range f.topicPatterns() {
		if err := f.subscriber.Subscribe(pattern, subscribeQoS, f.handlerFor(pattern)); err != nil {
			// A single unsubscribable pattern should not disable the
			// finder; the rest keep working.
			f.logger.Warn("announcement subscribe failed", "topic", pattern, "error", err)
			continue
		}
		f.subscribed = append(f.subscribed, pattern)
	}

	f.running = true
	f.logger.Info("mqtt finder started", "subscriptions", len(f.subscribed))
	return nil
}

// Stop unsubscribes from all announcement topics and stops the drain
// loop. Idempotent.
func (f *Finder) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return
	}
	for _, pattern := range f.subscribed {
		if err := f.subscriber.Unsubscribe(pattern); err != nil {
			f.logger.Warn("announcement unsubscribe failed", "topic", pattern, "error", err)
		}
	}
	f.subscribed = nil
	f.BaseFinder.Stop()
	f.running = false
}

// topicPatterns derives the distinct announcement topic patterns from the
// candidate subset, in candidate order.
func (f *Finder) topicPatterns() []string {
	seen := make(map[string]struct{})
	var patterns []string
	for _, c := range f.Candidates() {
		for _, m := range c.MethodsFor(addon.FinderMQTT) {
			if _, ok := seen[m.ServiceType]; ok {
				continue
			}
			seen[m.ServiceType] = struct{}{}
			patterns = append(patterns, m.ServiceType)
		}
	}
	return patterns
}

// handlerFor builds the message handler for one subscribed pattern.
func (f *Finder) handlerFor(pattern string) func(topic string, payload []byte) error {
	return func(topic string, payload []byte) error {
		f.Submit(messageToEvent(pattern, topic, payload))
		return nil
	}
}

// messageToEvent converts one broker message into a discovery event.
//
// Properties always include "topic" and "payload". If the payload is a
// flat JSON object its scalar fields are added as well, so match
// properties can target individual announcement fields.
func messageToEvent(pattern, topic string, payload []byte) finders.ServiceEvent {
	properties := map[string]string{
		"topic":   topic,
		"payload": string(payload),
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err == nil {
		for key, value := range fields {
			switch v := value.(type) {
			case string:
				properties[key] = v
			case float64, bool:
				data, _ := json.Marshal(v)
				properties[key] = string(data)
			}
		}
	}

	return finders.ServiceEvent{
		Key:         topic,
		ServiceType: pattern,
		Properties:  properties,
		ObservedAt:  time.Now().UTC(),
	}
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
