package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordSuggestionQuery writes one suggestion query measurement.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Together with RecordFinderFailure this satisfies the aggregator's
// metrics interface.
//
// Parameters:
//   - duration: Wall-clock time of the whole fan-out
//   - finders: Number of finders consulted
//   - suggestions: Number of suggestions returned
func (c *Client) RecordSuggestionQuery(duration time.Duration, finders, suggestions int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"suggestion_query",
		nil,
		map[string]interface{}{
			"duration_ms": float64(duration.Milliseconds()),
			"finders":     finders,
			"suggestions": suggestions,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordFinderFailure counts a finder error, panic, or timeout during a
// suggestion query.
//
// Parameters:
//   - kind: The finder kind that failed (e.g., "mdns")
func (c *Client) RecordFinderFailure(kind string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"finder_failure",
		map[string]string{
			"finder": kind,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordFinderStats writes one sample of a finder's queue counters.
//
// Sampled periodically by the main loop to track ingestion pressure.
//
// Parameters:
//   - kind: The finder kind (e.g., "usb")
//   - processed: Events applied to match-state since start
//   - dropped: Events discarded due to a full queue
//   - malformed: Events discarded due to missing fields
//   - records: Current size of the finder's service map
func (c *Client) RecordFinderStats(kind string, processed, dropped, malformed int64, records int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"finder_stats",
		map[string]string{
			"finder": kind,
		},
		map[string]interface{}{
			"processed": processed,
			"dropped":   dropped,
			"malformed": malformed,
			"records":   records,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "addons-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
