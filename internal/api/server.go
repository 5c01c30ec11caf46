// Package api provides the HTTP REST API and WebSocket server for Gray
// Logic Addons.
//
// It exposes add-on suggestions, the catalog, the discovered-service
// inventory, and finder statistics to user interfaces (web admin,
// wall panels).
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/addon"
	"github.com/nerrad567/gray-logic-addons/internal/finders"
	"github.com/nerrad567/gray-logic-addons/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-addons/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-addons/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-addons/internal/inventory"
	"github.com/nerrad567/gray-logic-addons/internal/suggest"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// suggestionRefreshInterval is how often the background watcher re-runs
// the suggestion query to detect changes for WebSocket/MQTT notification.
const suggestionRefreshInterval = 5 * time.Second

// FinderStatus is the read-only view of a running finder exposed over the API.
type FinderStatus interface {
	Kind() string
	Stats() finders.Stats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Aggregator *suggest.Aggregator
	Catalog    *addon.Catalog
	Inventory  inventory.Repository // optional; discovery endpoints 404 without it
	Finders    []FinderStatus
	MQTT       *mqtt.Client // optional; suggestion-change events published when set
	Locale     string       // default locale for suggestion queries
	Version    string
}

// Server is the HTTP API server for Gray Logic Addons.
//
// It manages the HTTP listener, routes, middleware, the WebSocket hub,
// and a background watcher that notifies clients when the suggestion
// set changes.
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	aggregator *suggest.Aggregator
	catalog    *addon.Catalog
	inventory  inventory.Repository
	finders    []FinderStatus
	mqtt       *mqtt.Client
	locale     string
	version    string
	server     *http.Server
	hub        *Hub
	cancel     context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, aggregator, catalog)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		aggregator: deps.Aggregator,
		catalog:    deps.Catalog,
		inventory:  deps.Inventory,
		finders:    deps.Finders,
		mqtt:       deps.MQTT,
		locale:     deps.Locale,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub and the suggestion
// watcher, and launches the HTTP listener in a background goroutine.
// The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	// Watch for suggestion-set changes and notify clients
	go s.watchSuggestions(srvCtx)

	// Build router
	router := s.buildRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// watchSuggestions periodically re-runs the suggestion query and, when
// the result set changes, broadcasts a refresh hint to WebSocket clients
// and publishes a suggestion-change event over MQTT.
//
// Clients are expected to refetch /api/v1/suggestions on notification;
// the event itself carries only the new suggestion count.
func (s *Server) watchSuggestions(ctx context.Context) {
	ticker := time.NewTicker(suggestionRefreshInterval)
	defer ticker.Stop()

	var previous string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		suggestions := s.aggregator.GetSuggestedAddons(ctx, s.locale)
		current := suggestionFingerprint(suggestions)
		if current == previous {
			continue
		}
		previous = current

		s.logger.Info("suggestion set changed", "suggestions", len(suggestions))
		s.hub.Broadcast("suggestions.changed", map[string]any{
			"count": len(suggestions),
		})

		if s.mqtt != nil {
			topic := mqtt.Topics{}.SuggestionsChanged()
			payload := fmt.Sprintf(`{"count":%d}`, len(suggestions))
			if err := s.mqtt.PublishString(topic, payload, 1, false); err != nil {
				s.logger.Warn("failed to publish suggestion change", "error", err)
			}
		}
	}
}

// suggestionFingerprint reduces a suggestion set to a comparable key.
func suggestionFingerprint(suggestions []suggest.Suggestion) string {
	ids := make([]string, 0, len(suggestions))
	for _, sg := range suggestions {
		ids = append(ids, sg.ID)
	}
	sort.Strings(ids)
	out := ""
	for _, id := range ids {
		out += id + "\n"
	}
	return out
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, suggestion watcher)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
