// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"

	"github.com/TomSft15/TelloDroneHub/api"
	"github.com/TomSft15/TelloDroneHub/api/middleware"
	"github.com/TomSft15/TelloDroneHub/internal/config"
	"github.com/TomSft15/TelloDroneHub/internal/database"
	"github.com/TomSft15/TelloDroneHub/internal/droneservice"
	"github.com/TomSft15/TelloDroneHub/internal/events"
	"github.com/TomSft15/TelloDroneHub/internal/monitoring"
	"github.com/TomSft15/TelloDroneHub/internal/repository/files"
	"github.com/TomSft15/TelloDroneHub/internal/repository/postgres"
	"github.com/TomSft15/TelloDroneHub/internal/stream"
	"github.com/TomSft15/TelloDroneHub/internal/telemetry"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	service    *droneservice.Service
	hub        *stream.Hub
	publisher  *events.TelemetryPublisher
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	s.service = initializeDroneService(s.config)
	s.monitoring = monitoring.NewService()

	// Telemetry fan-out
	s.hub = stream.NewHub(s.service, s.config.Telemetry.BroadcastInterval, s.config.Server.AllowedOrigins)
	s.service.SetBroadcaster(s.hub)

	// Redis publishing is best-effort; the server runs without it
	publisher, err := events.NewTelemetryPublisher(s.config.Redis)
	if err != nil {
		nuts.L.Warnf("[Server] Redis unavailable, telemetry publishing disabled: %v", err)
	} else {
		s.publisher = publisher
		s.service.SetEventPublisher(publisher)
	}

	s.setupCleanupHandlers()

	router := api.NewRouter(s.service, s.hub, middleware.KeycloakConfig{
		URL:          s.config.Keycloak.URL,
		Realm:        s.config.Keycloak.Realm,
		ClientID:     s.config.Keycloak.ClientID,
		ClientSecret: s.config.Keycloak.ClientSecret,
	})
	router.SetHealthCheck(s.handleHealth())

	s.srv.Handler = s.wrapMiddleware(router)

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// wrapMiddleware layers CORS, recovery and request logging around the router
func (s *Server) wrapMiddleware(h http.Handler) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	return handlers.RecoveryHandler()(cors(handlers.LoggingHandler(os.Stdout, h)))
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing telemetry publisher: %v", err)
		}
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

func (s *Server) setupCleanupHandlers() {
	// Handle drone deletion events
	s.service.Cleanup.OnCleanup("drone.deleted", func(id string) {
		nuts.L.Infof("[Cleanup] Drone %s and all associated data deleted", id)
		s.monitoring.RecordEvent("drone_deletion", map[string]string{
			"drone_id": id,
		})
	})

	// Handle flight log deletion events
	s.service.Cleanup.OnCleanup("flightlogs.deleted", func(id string) {
		nuts.L.Infof("[Cleanup] All flight logs for drone %s deleted", id)
		s.monitoring.RecordEvent("flightlog_deletion", map[string]string{
			"drone_id": id,
		})
	})

	// Handle media deletion events
	s.service.Cleanup.OnCleanup("media.deleted", func(id string) {
		nuts.L.Infof("[Cleanup] All media for drone %s deleted", id)
		s.monitoring.RecordEvent("media_deletion", map[string]string{
			"drone_id": id,
		})
	})
}

// initializeDroneService creates and configures the drone service
func initializeDroneService(cfg *config.Config) *droneservice.Service {
	appDB := initAppDB(cfg.Database.AppDB)

	drones := postgres.NewDroneRepository(appDB)
	flightLogs := postgres.NewFlightLogRepository(appDB)
	media := postgres.NewMediaRepository(appDB)

	fileRepo, err := files.NewFileRepository(cfg.FileStore)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize file repository: %v", err)
	}

	store := telemetry.NewStore()

	return droneservice.New(drones, flightLogs, media, fileRepo, store, droneservice.FlightConfig{
		ReturnHomeDelay: cfg.Telemetry.ReturnHomeDelay,
		HomeLatitude:    cfg.Telemetry.HomeLatitude,
		HomeLongitude:   cfg.Telemetry.HomeLongitude,
	})
}

func initAppDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to AppDB: %v", err)
	}
	db := wrappedDB.GetDB()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	return wrappedDB
}
