// Package influxdb provides InfluxDB connectivity for Gray Logic Addons.
//
// It wraps the official influxdb-client-go v2 library with the project's
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Suggestion query telemetry (latency, fan-out width, result counts)
//   - Per-finder failure counts
//   - Ingestion queue counters (processed, dropped, malformed)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "graylogic",
//	    Bucket: "addons",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a suggestion query
//	client.RecordSuggestionQuery(12*time.Millisecond, 3, 5)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
