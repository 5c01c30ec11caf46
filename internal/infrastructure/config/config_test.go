package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
catalog:
  path: "/etc/graylogic/addons.yaml"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8081
finders:
  mdns:
    rescan_interval: 2m
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Catalog.Path != "/etc/graylogic/addons.yaml" {
		t.Errorf("Catalog.Path = %q, want %q", cfg.Catalog.Path, "/etc/graylogic/addons.yaml")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	if cfg.Finders.MDNS.RescanInterval != 2*time.Minute {
		t.Errorf("Finders.MDNS.RescanInterval = %v, want 2m", cfg.Finders.MDNS.RescanInterval)
	}

	// Untouched sections keep their defaults
	if cfg.Suggest.FinderTimeout != 5*time.Second {
		t.Errorf("Suggest.FinderTimeout = %v, want 5s", cfg.Suggest.FinderTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
catalog:
  path: ""
database:
  path: "/tmp/test.db"
api:
  port: 8081
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty catalog.path, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing catalog path",
			mutate:  func(c *Config) { c.Catalog.Path = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero finder timeout",
			mutate:  func(c *Config) { c.Suggest.FinderTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero queue size",
			mutate:  func(c *Config) { c.Suggest.QueueSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Inventory.RetentionDays = -1 },
			wantErr: true,
		},
		{
			name: "mqtt finder without broker",
			mutate: func(c *Config) {
				c.Finders.MQTT.Enabled = true
				c.MQTT.Enabled = false
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestConfig_InventoryRetention(t *testing.T) {
	cfg := &Config{Inventory: InventoryConfig{RetentionDays: 7}}
	if got := cfg.InventoryRetention(); got != 7*24*time.Hour {
		t.Errorf("InventoryRetention() = %v, want 168h", got)
	}

	cfg.Inventory.RetentionDays = 0
	if got := cfg.InventoryRetention(); got != 0 {
		t.Errorf("InventoryRetention() = %v, want 0", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("GLADDONS_CATALOG_PATH", "/custom/addons.yaml")
	t.Setenv("GLADDONS_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GLADDONS_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GLADDONS_MQTT_USERNAME", "testuser")
	t.Setenv("GLADDONS_MQTT_PASSWORD", "testpass")
	t.Setenv("GLADDONS_API_HOST", "192.168.1.1")
	t.Setenv("GLADDONS_API_PORT", "9090")
	t.Setenv("GLADDONS_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Catalog.Path != "/custom/addons.yaml" {
		t.Errorf("Catalog.Path = %q, want %q", cfg.Catalog.Path, "/custom/addons.yaml")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Catalog.Path == "" {
		t.Error("defaultConfig should have non-empty Catalog.Path")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8081 {
		t.Errorf("defaultConfig API.Port = %d, want 8081", cfg.API.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
}
