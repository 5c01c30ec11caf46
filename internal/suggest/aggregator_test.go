package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
)

const testCatalogYAML = `
addons:
  - id: hpprinter
    name: HP Printer
  - id: hue
    name: Philips Hue
    labels:
      de:
        name: Philips Hue Bridge
  - id: zigbee2mqtt
    name: Zigbee2MQTT
`

// captureMetrics records telemetry calls for assertions.
type captureMetrics struct {
	mu       sync.Mutex
	queries  int
	failures []string
}

func (m *captureMetrics) RecordSuggestionQuery(time.Duration, int, int) {
	m.mu.Lock()
	m.queries++
	m.mu.Unlock()
}

func (m *captureMetrics) RecordFinderFailure(kind string) {
	m.mu.Lock()
	m.failures = append(m.failures, kind)
	m.mu.Unlock()
}

func testCatalog(t *testing.T) *addon.Catalog {
	t.Helper()
	catalog, err := addon.ParseCatalog([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("parsing test catalog: %v", err)
	}
	return catalog
}

func newTestAggregator(t *testing.T, timeout time.Duration, finders ...Finder) *Aggregator {
	t.Helper()
	registry := NewRegistry()
	for _, f := range finders {
		if err := registry.Add(f); err != nil {
			t.Fatalf("adding finder: %v", err)
		}
	}
	aggregator, err := NewAggregator(registry, testCatalog(t), timeout)
	if err != nil {
		t.Fatalf("creating aggregator: %v", err)
	}
	return aggregator
}

func suggestionIDs(suggestions []Suggestion) []string {
	ids := make([]string, len(suggestions))
	for i, s := range suggestions {
		ids[i] = s.ID
	}
	return ids
}

func TestNewAggregator_Validation(t *testing.T) {
	registry := NewRegistry()
	catalog := testCatalog(t)

	if _, err := NewAggregator(nil, catalog, 0); !errors.Is(err, ErrNilRegistry) {
		t.Errorf("expected ErrNilRegistry, got %v", err)
	}
	if _, err := NewAggregator(registry, nil, 0); !errors.Is(err, ErrNilCatalog) {
		t.Errorf("expected ErrNilCatalog, got %v", err)
	}
	if _, err := NewAggregator(registry, catalog, 0); err != nil {
		t.Errorf("zero timeout should select the default, got %v", err)
	}
}

func TestAggregator_EmptyRegistry(t *testing.T) {
	aggregator := newTestAggregator(t, time.Second)

	suggestions := aggregator.GetSuggestedAddons(context.Background(), "")
	if len(suggestions) != 0 {
		t.Errorf("expected no suggestions, got %v", suggestions)
	}
}

func TestAggregator_UnionAndSort(t *testing.T) {
	aggregator := newTestAggregator(t, time.Second,
		&fakeFinder{kind: "mdns", ids: []string{"hue", "hpprinter"}},
		&fakeFinder{kind: "mqtt", ids: []string{"zigbee2mqtt", "hue"}},
	)

	suggestions := aggregator.GetSuggestedAddons(context.Background(), "")
	ids := suggestionIDs(suggestions)

	// Union, deduplicated (hue reported twice), sorted by ID
	want := []string{"hpprinter", "hue", "zigbee2mqtt"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestAggregator_DropsUnknownIDs(t *testing.T) {
	aggregator := newTestAggregator(t, time.Second,
		&fakeFinder{kind: "mdns", ids: []string{"hue", "rogue-addon"}},
	)

	suggestions := aggregator.GetSuggestedAddons(context.Background(), "")
	if len(suggestions) != 1 || suggestions[0].ID != "hue" {
		t.Errorf("expected only catalog members, got %v", suggestionIDs(suggestions))
	}
}

func TestAggregator_FinderErrorContained(t *testing.T) {
	metrics := &captureMetrics{}
	aggregator := newTestAggregator(t, time.Second,
		&fakeFinder{kind: "mdns", ids: []string{"hue"}},
		&fakeFinder{kind: "usb", err: errors.New("sysfs unavailable")},
	)
	aggregator.SetMetrics(metrics)

	suggestions := aggregator.GetSuggestedAddons(context.Background(), "")
	if len(suggestions) != 1 || suggestions[0].ID != "hue" {
		t.Errorf("expected healthy finder result, got %v", suggestionIDs(suggestions))
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if len(metrics.failures) != 1 || metrics.failures[0] != "usb" {
		t.Errorf("expected usb failure recorded, got %v", metrics.failures)
	}
	if metrics.queries != 1 {
		t.Errorf("expected 1 query recorded, got %d", metrics.queries)
	}
}

func TestAggregator_FinderPanicContained(t *testing.T) {
	aggregator := newTestAggregator(t, time.Second,
		&fakeFinder{kind: "mdns", ids: []string{"hue"}},
		&fakeFinder{kind: "mqtt", panics: true},
	)

	suggestions := aggregator.GetSuggestedAddons(context.Background(), "")
	if len(suggestions) != 1 || suggestions[0].ID != "hue" {
		t.Errorf("expected panic to be contained, got %v", suggestionIDs(suggestions))
	}
}

func TestAggregator_SlowFinderAbandoned(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	aggregator := newTestAggregator(t, 50*time.Millisecond,
		&fakeFinder{kind: "mdns", ids: []string{"hue"}},
		&fakeFinder{kind: "usb", ids: []string{"zigbee2mqtt"}, block: block},
	)

	start := time.Now()
	suggestions := aggregator.GetSuggestedAddons(context.Background(), "")
	elapsed := time.Since(start)

	if len(suggestions) != 1 || suggestions[0].ID != "hue" {
		t.Errorf("expected only the fast finder's result, got %v", suggestionIDs(suggestions))
	}
	if elapsed > time.Second {
		t.Errorf("query did not respect the deadline, took %v", elapsed)
	}
}

func TestAggregator_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	aggregator := newTestAggregator(t, 10*time.Second,
		&fakeFinder{kind: "usb", ids: []string{"hue"}, block: block},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	suggestions := aggregator.GetSuggestedAddons(ctx, "")
	if time.Since(start) > time.Second {
		t.Error("cancelled query did not return promptly")
	}
	if len(suggestions) != 0 {
		t.Errorf("expected no suggestions after cancellation, got %v", suggestionIDs(suggestions))
	}
}

func TestAggregator_Localization(t *testing.T) {
	aggregator := newTestAggregator(t, time.Second,
		&fakeFinder{kind: "mdns", ids: []string{"hue"}},
	)

	suggestions := aggregator.GetSuggestedAddons(context.Background(), "de-DE")
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
	}
	if suggestions[0].Name != "Philips Hue Bridge" {
		t.Errorf("expected localized name, got %q", suggestions[0].Name)
	}

	suggestions = aggregator.GetSuggestedAddons(context.Background(), "ja")
	if suggestions[0].Name != "Philips Hue" {
		t.Errorf("expected default name for unknown locale, got %q", suggestions[0].Name)
	}
}

// TestAggregator_ConcurrentQueries runs queries while the registry churns.
// Run with -race.
func TestAggregator_ConcurrentQueries(t *testing.T) {
	registry := NewRegistry()
	aggregator, err := NewAggregator(registry, testCatalog(t), time.Second)
	if err != nil {
		t.Fatalf("creating aggregator: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			f := &fakeFinder{kind: "mdns", ids: []string{"hue"}}
			if err := registry.Add(f); err != nil {
				t.Errorf("concurrent add failed: %v", err)
				return
			}
			registry.Remove(f)
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				suggestions := aggregator.GetSuggestedAddons(context.Background(), "")
				// Whatever the churn, results stay within the catalog
				for _, s := range suggestions {
					if s.ID != "hue" {
						t.Errorf("unexpected suggestion %q", s.ID)
						return
					}
				}
			}
		}()
	}

	time.Sleep(500 * time.Millisecond)
	close(stop)
	wg.Wait()
}
