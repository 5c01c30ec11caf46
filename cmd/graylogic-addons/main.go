// Gray Logic Addons - Add-on Suggestion Service
//
// This is the main entry point for the Gray Logic Addons service.
// It watches the local network for evidence of supported hardware
// (mDNS announcements, MQTT ecosystem presence, USB serial devices)
// and suggests the add-ons worth installing:
//   - Finders ingest discovery events into per-finder match state
//   - The aggregator unions finder verdicts against the add-on catalog
//   - Results are served over REST, WebSocket, and MQTT events
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-addons/migrations"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
	"github.com/nerrad567/gray-logic-addons/internal/api"
	"github.com/nerrad567/gray-logic-addons/internal/finders"
	"github.com/nerrad567/gray-logic-addons/internal/finders/mdns"
	"github.com/nerrad567/gray-logic-addons/internal/finders/mqttdisc"
	"github.com/nerrad567/gray-logic-addons/internal/finders/usb"
	"github.com/nerrad567/gray-logic-addons/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-addons/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-addons/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-addons/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-addons/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-addons/internal/inventory"
	"github.com/nerrad567/gray-logic-addons/internal/suggest"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// finderStatsInterval is how often finder queue counters are sampled
// into the telemetry store.
const finderStatsInterval = time.Minute

// runnableFinder is what every concrete finder exposes to main: the
// registry capability plus lifecycle and status.
type runnableFinder interface {
	suggest.Finder
	api.FinderStatus
	SetLogger(logger finders.Logger)
	SetObserver(observer finders.Observer)
	Start(ctx context.Context) error
	Stop()
}

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit // Startup wiring: each component follows the same construct/start/defer-stop shape
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Addons",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Load the add-on catalog
	catalog, err := addon.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("loading addon catalog: %w", err)
	}
	log.Info("addon catalog loaded", "path", cfg.Catalog.Path, "addons", catalog.Len())

	// Finder registry: candidates are pushed to every finder on Add()
	registry := suggest.NewRegistry()
	registry.SetLogger(log)
	registry.SetAddonCandidates(catalog.Addons())

	// Inventory recorder persists everything the finders observe
	inventoryRepo := inventory.NewSQLiteRepository(db.DB)
	recorder := inventory.NewRecorder(inventoryRepo, inventory.RecorderConfig{
		Retention: cfg.InventoryRetention(),
	})
	recorder.SetLogger(log)
	if err := recorder.Start(ctx); err != nil {
		return fmt.Errorf("starting inventory recorder: %w", err)
	}
	defer func() {
		log.Info("stopping inventory recorder")
		recorder.Stop()
	}()

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Construct and start the enabled finders
	queueCfg := finders.Config{
		QueueSize:      cfg.Suggest.QueueSize,
		DrainInterval:  cfg.Suggest.DrainInterval,
		DrainThreshold: cfg.Suggest.DrainThreshold,
	}
	running, err := startFinders(ctx, cfg, queueCfg, registry, recorder, mqttClient, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, f := range running {
			log.Info("stopping finder", "kind", f.Kind())
			f.Stop()
		}
	}()

	// Suggestion aggregator over the live registry
	aggregator, err := suggest.NewAggregator(registry, catalog, cfg.Suggest.FinderTimeout)
	if err != nil {
		return fmt.Errorf("creating aggregator: %w", err)
	}
	aggregator.SetLogger(log)
	if influxClient != nil {
		aggregator.SetMetrics(influxClient)
	}

	apiFinders := make([]api.FinderStatus, len(running))
	for i, f := range running {
		apiFinders[i] = f
	}

	// Sample finder queue counters into telemetry
	if influxClient != nil {
		go sampleFinderStats(ctx, influxClient, apiFinders)
	}

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log,
		Aggregator: aggregator,
		Catalog:    catalog,
		Inventory:  inventoryRepo,
		Finders:    apiFinders,
		MQTT:       mqttClient,
		Locale:     cfg.Catalog.DefaultLocale,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Finders
	// 3. InfluxDB / MQTT (if enabled)
	// 4. Inventory recorder
	// 5. Database

	log.Info("Gray Logic Addons stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GLADDONS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GLADDONS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startFinders constructs, registers, and starts every enabled finder.
//
// Each finder is added to the registry before Start() so it picks up the
// candidate set, and wired to the inventory recorder so every observation
// is persisted.
//
// Parameters:
//   - ctx: Context for finder background loops
//   - cfg: Application configuration
//   - queueCfg: Shared ingestion queue tuning
//   - registry: Finder registry queried by the aggregator
//   - recorder: Inventory observer
//   - mqttClient: Broker connection; nil disables the MQTT finder
//   - log: Logger instance
//
// Returns:
//   - []runnableFinder: Started finders, for status reporting and shutdown
//   - error: If any enabled finder fails to start
func startFinders(
	ctx context.Context,
	cfg *config.Config,
	queueCfg finders.Config,
	registry *suggest.Registry,
	recorder *inventory.Recorder,
	mqttClient *mqtt.Client,
	log *logging.Logger,
) ([]runnableFinder, error) {
	var toStart []runnableFinder

	if cfg.Finders.MDNS.Enabled {
		toStart = append(toStart, mdns.New(mdns.Config{
			Interface:      cfg.Finders.MDNS.Interface,
			RescanInterval: cfg.Finders.MDNS.RescanInterval,
		}, queueCfg))
	}

	if cfg.Finders.MQTT.Enabled && mqttClient != nil {
		toStart = append(toStart, mqttdisc.New(mqttClient, queueCfg))
	}

	if cfg.Finders.USB.Enabled {
		enumerator := &usb.SysfsEnumerator{Root: cfg.Finders.USB.SysfsRoot}
		toStart = append(toStart, usb.New(enumerator, usb.Config{
			ScanInterval: cfg.Finders.USB.ScanInterval,
		}, queueCfg))
	}

	var running []runnableFinder
	for _, f := range toStart {
		f.SetLogger(log)
		f.SetObserver(recorder)

		// Add before Start so the finder sees the candidate set
		if err := registry.Add(f); err != nil {
			return running, fmt.Errorf("registering %s finder: %w", f.Kind(), err)
		}
		if err := f.Start(ctx); err != nil {
			registry.Remove(f)
			return running, fmt.Errorf("starting %s finder: %w", f.Kind(), err)
		}
		running = append(running, f)
		log.Info("finder started", "kind", f.Kind())
	}

	if len(running) == 0 {
		log.Warn("no finders enabled; suggestions will always be empty")
	}
	return running, nil
}

// sampleFinderStats periodically writes each finder's queue counters to
// the telemetry store.
func sampleFinderStats(ctx context.Context, client *influxdb.Client, statuses []api.FinderStatus) {
	ticker := time.NewTicker(finderStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, f := range statuses {
				stats := f.Stats()
				client.RecordFinderStats(f.Kind(),
					stats.EventsProcessed,
					stats.EventsDropped,
					stats.EventsMalformed,
					stats.Records,
				)
			}
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT (if enabled)
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// Check API server
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
