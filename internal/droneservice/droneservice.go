package droneservice

import (
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/cleanup"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	"github.com/TomSft15/TelloDroneHub/internal/repository"
	"github.com/TomSft15/TelloDroneHub/internal/telemetry"
)

// Broadcaster delivers a telemetry view to every observer of a drone.
// Implemented by the websocket hub; a nil broadcaster is valid and drops
// pushes silently.
type Broadcaster interface {
	BroadcastTelemetry(droneID string, view *models.TelemetryView)
}

// EventPublisher pushes telemetry events to external consumers (Redis).
// Best-effort: publish failures are logged, never surfaced to callers.
type EventPublisher interface {
	PublishTelemetry(droneID string, snap models.TelemetrySnapshot)
}

// FlightConfig tunes the simulated session timers and the home position
type FlightConfig struct {
	ReturnHomeDelay time.Duration
	HomeLatitude    float64
	HomeLongitude   float64
}

// Service contains all repositories and service-wide dependencies
type Service struct {
	Drones     repository.DroneRepository
	FlightLogs repository.FlightLogRepository
	Media      repository.MediaRepository
	Files      repository.FileRepository
	Telemetry  *telemetry.Store
	Cleanup    *cleanup.CleanupService

	flightCfg   FlightConfig
	broadcaster Broadcaster
	events      EventPublisher
}

// New creates a new Service instance
func New(
	drones repository.DroneRepository,
	flightLogs repository.FlightLogRepository,
	media repository.MediaRepository,
	files repository.FileRepository,
	store *telemetry.Store,
	flightCfg FlightConfig,
) *Service {
	svc := &Service{
		Drones:     drones,
		FlightLogs: flightLogs,
		Media:      media,
		Files:      files,
		Telemetry:  store,
		flightCfg:  flightCfg,
	}
	svc.Cleanup = cleanup.New(drones, flightLogs, media, files)
	return svc
}

// SetBroadcaster wires the telemetry fan-out. Called once at startup, after
// the hub is constructed.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetEventPublisher wires the external telemetry event channel
func (s *Service) SetEventPublisher(p EventPublisher) {
	s.events = p
}

// Validate checks if all required dependencies are initialized
func (s *Service) Validate() error {
	if s.Drones == nil {
		return ErrMissingRepository("drones")
	}
	if s.FlightLogs == nil {
		return ErrMissingRepository("flightLogs")
	}
	if s.Media == nil {
		return ErrMissingRepository("media")
	}
	if s.Files == nil {
		return ErrMissingRepository("files")
	}
	if s.Telemetry == nil {
		return errors.NewInternalError("missing telemetry store", nil)
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
