package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Logic Addons.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Finders   FindersConfig   `yaml:"finders"`
	Suggest   SuggestConfig   `yaml:"suggest"`
	Inventory InventoryConfig `yaml:"inventory"`
}

// CatalogConfig locates the add-on catalog.
type CatalogConfig struct {
	Path          string `yaml:"path"`
	DefaultLocale string `yaml:"default_locale"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
// The broker serves double duty: the MQTT finder listens on it for
// device announcements, and the service publishes its own presence.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// FindersConfig contains per-finder settings.
type FindersConfig struct {
	MDNS MDNSFinderConfig `yaml:"mdns"`
	MQTT MQTTFinderConfig `yaml:"mqtt"`
	USB  USBFinderConfig  `yaml:"usb"`
}

// MDNSFinderConfig contains mDNS finder settings.
type MDNSFinderConfig struct {
	Enabled bool `yaml:"enabled"`

	// Interface restricts browsing to one network interface.
	// Empty means all multicast-capable interfaces.
	Interface string `yaml:"interface"`

	// RescanInterval is the period of the full browse cycle.
	RescanInterval time.Duration `yaml:"rescan_interval"`
}

// MQTTFinderConfig contains MQTT finder settings.
// The finder shares the broker connection configured under mqtt.
type MQTTFinderConfig struct {
	Enabled bool `yaml:"enabled"`
}

// USBFinderConfig contains USB serial finder settings.
type USBFinderConfig struct {
	Enabled bool `yaml:"enabled"`

	// ScanInterval is the period between sysfs enumerations.
	ScanInterval time.Duration `yaml:"scan_interval"`

	// SysfsRoot overrides the sysfs mount point, mainly for tests.
	SysfsRoot string `yaml:"sysfs_root"`
}

// SuggestConfig tunes the suggestion pipeline.
type SuggestConfig struct {
	// FinderTimeout bounds how long one finder may take to answer a
	// suggestion query before it is abandoned.
	FinderTimeout time.Duration `yaml:"finder_timeout"`

	// QueueSize is the per-finder event buffer capacity.
	QueueSize int `yaml:"queue_size"`

	// DrainInterval is the per-finder batch apply period.
	DrainInterval time.Duration `yaml:"drain_interval"`

	// DrainThreshold triggers an early drain when the queue backs up.
	DrainThreshold int `yaml:"drain_threshold"`
}

// InventoryConfig contains service inventory settings.
type InventoryConfig struct {
	// RetentionDays is how long unseen services are kept. 0 keeps forever.
	RetentionDays int `yaml:"retention_days"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GLADDONS_SECTION_KEY
// For example: GLADDONS_DATABASE_PATH, GLADDONS_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path:          "./configs/addons.yaml",
			DefaultLocale: "en",
		},
		Database: DatabaseConfig{
			Path:        "./data/graylogic-addons.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-addons",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8081,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Finders: FindersConfig{
			MDNS: MDNSFinderConfig{
				Enabled:        true,
				RescanInterval: 5 * time.Minute,
			},
			MQTT: MQTTFinderConfig{
				Enabled: false,
			},
			USB: USBFinderConfig{
				Enabled:      true,
				ScanInterval: 30 * time.Second,
			},
		},
		Suggest: SuggestConfig{
			FinderTimeout:  5 * time.Second,
			QueueSize:      1024,
			DrainInterval:  250 * time.Millisecond,
			DrainThreshold: 64,
		},
		Inventory: InventoryConfig{
			RetentionDays: 30,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GLADDONS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Catalog
	if v := os.Getenv("GLADDONS_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}

	// Database
	if v := os.Getenv("GLADDONS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GLADDONS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GLADDONS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GLADDONS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GLADDONS_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("GLADDONS_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("GLADDONS_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Catalog validation
	if c.Catalog.Path == "" {
		errs = append(errs, "catalog.path is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.Finders.MQTT.Enabled && !c.MQTT.Enabled {
		errs = append(errs, "finders.mqtt.enabled requires mqtt.enabled")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Suggestion pipeline validation
	if c.Suggest.FinderTimeout <= 0 {
		errs = append(errs, "suggest.finder_timeout must be positive")
	}
	if c.Suggest.QueueSize <= 0 {
		errs = append(errs, "suggest.queue_size must be positive")
	}
	if c.Suggest.DrainInterval <= 0 {
		errs = append(errs, "suggest.drain_interval must be positive")
	}

	// Inventory validation
	if c.Inventory.RetentionDays < 0 {
		errs = append(errs, "inventory.retention_days must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// InventoryRetention returns the inventory retention window as a Duration.
// Zero means retention is disabled.
func (c *Config) InventoryRetention() time.Duration {
	return time.Duration(c.Inventory.RetentionDays) * 24 * time.Hour
}
