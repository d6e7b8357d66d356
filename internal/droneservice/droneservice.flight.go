// FilePath: internal/droneservice/droneservice.flight.go
package droneservice

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/auth"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	"github.com/TomSft15/TelloDroneHub/internal/telemetry"
	nuts "github.com/vaudience/go-nuts"
)

// degreesToMeters is the rough planar conversion factor applied to path
// segments when accumulating flight distance
const degreesToMeters = 111000.0

// FlightSession is returned from StartFlight and EndFlight
type FlightSession struct {
	Drone     *models.Drone     `json:"drone"`
	FlightLog *models.FlightLog `json:"flight_log"`
}

// StartFlight begins a simulated flight: creates the flight log, marks the
// drone flying and installs a fresh telemetry snapshot seeded at the home
// position.
func (s *Service) StartFlight(ctx context.Context, droneID, controlMode string) (*FlightSession, error) {
	drone, err := s.authorizedDrone(ctx, droneID)
	if err != nil {
		return nil, err
	}

	if drone.Status == models.DroneStatusFlying {
		return nil, errors.NewInvalidStateError("drone is already flying", nil)
	}

	if controlMode == "" {
		controlMode = models.ControlModeKeyboard
	}
	if !models.IsValidControlMode(controlMode) {
		return nil, errors.NewValidationError("unknown control mode: "+controlMode, nil)
	}

	now := time.Now()
	flightLog := &models.FlightLog{
		ID:          nuts.NID("fl", 12),
		DroneID:     drone.ID,
		StartTime:   now,
		ControlMode: controlMode,
		Path:        models.FlightPath{},
		CreatedAt:   now,
	}
	if err := s.FlightLogs.Create(ctx, flightLog); err != nil {
		return nil, err
	}

	drone.Status = models.DroneStatusFlying
	drone.LastConnection = &now
	if err := s.Drones.UpdateStatus(ctx, drone.ID, drone.Status, now); err != nil {
		return nil, err
	}

	s.Telemetry.Create(drone.ID, models.TelemetrySnapshot{
		Battery: float64(drone.BatteryLevel),
		Position: models.Position{
			Latitude:  s.flightCfg.HomeLatitude,
			Longitude: s.flightCfg.HomeLongitude,
		},
		Status:      models.TelemetryStatusConnected,
		LastUpdated: now,
	})

	nuts.L.Infof("[FlightService] Flight started for drone %s (mode=%s, log=%s)", drone.ID, controlMode, flightLog.ID)
	return &FlightSession{Drone: drone, FlightLog: flightLog}, nil
}

// EndFlight finalizes the active flight log, restores the drone to inactive
// and tears down the telemetry session.
func (s *Service) EndFlight(ctx context.Context, droneID string) (*FlightSession, error) {
	drone, err := s.authorizedDrone(ctx, droneID)
	if err != nil {
		return nil, err
	}

	if drone.Status != models.DroneStatusFlying {
		return nil, errors.NewInvalidStateError("drone is not flying", nil)
	}

	now := time.Now()
	snap, connected := s.Telemetry.Get(drone.ID)

	flightLog, err := s.FlightLogs.GetActive(ctx, drone.ID)
	if err != nil {
		// The flight still ends; a missing log is only worth a warning
		nuts.L.Warnf("[FlightService] No active flight log found for drone %s", drone.ID)
		flightLog = nil
	} else {
		flightLog.EndTime = &now
		flightLog.Duration = now.Sub(flightLog.StartTime).Seconds()
		if connected {
			flightLog.BatteryConsumption = math.Max(0, float64(drone.BatteryLevel)-snap.Battery)
		}
		if err := s.FlightLogs.Update(ctx, flightLog); err != nil {
			nuts.L.Warnf("[FlightService] Failed to finalize flight log %s: %v", flightLog.ID, err)
		}
	}

	drone.Status = models.DroneStatusInactive
	drone.LastConnection = &now
	// Simulated battery consumption for the whole flight
	drone.BatteryLevel = max(0, drone.BatteryLevel-(rand.Intn(10)+5))

	if err := s.Drones.UpdateStatus(ctx, drone.ID, drone.Status, now); err != nil {
		return nil, err
	}
	if err := s.Drones.UpdateBattery(ctx, drone.ID, drone.BatteryLevel); err != nil {
		nuts.L.Warnf("[FlightService] Failed to persist battery level for drone %s: %v", drone.ID, err)
	}

	s.Telemetry.Delete(drone.ID)

	nuts.L.Infof("[FlightService] Flight ended for drone %s", drone.ID)
	return &FlightSession{Drone: drone, FlightLog: flightLog}, nil
}

// SendCommand applies one discrete command to the drone's live telemetry,
// appends the new position to the active flight log and fans the updated
// snapshot out to observers.
func (s *Service) SendCommand(ctx context.Context, droneID, command string, params map[string]interface{}) (*models.CommandResult, error) {
	drone, err := s.authorizedDrone(ctx, droneID)
	if err != nil {
		return nil, err
	}

	// Every command except takeoff requires an airborne drone
	if command != telemetry.CommandTakeoff && drone.Status != models.DroneStatusFlying {
		return nil, errors.NewInvalidStateError("cannot send command: drone is not flying", nil)
	}

	now := time.Now()
	var outcome telemetry.Outcome
	snap, ok := s.Telemetry.Update(drone.ID, func(cur *models.TelemetrySnapshot) {
		*cur, outcome = telemetry.Apply(*cur, command, params, now)
	})
	if !ok {
		return nil, errors.NewNotConnectedError("drone is not connected", nil)
	}

	if !outcome.Known {
		nuts.L.Warnf("[FlightService] Unknown command for drone %s: %s", drone.ID, command)
	}

	if outcome.ReturnToHome {
		s.scheduleReturnToHome(drone.ID)
	}

	// Path and statistics updates are best-effort; a persistence failure
	// never fails the already-applied command
	s.appendPathPoint(ctx, drone.ID, snap, now)

	s.pushTelemetry(drone.ID, snap)

	return &models.CommandResult{
		Success: true,
		Command: command,
		Result:  outcome.Result,
		NewState: &models.CommandState{
			Status:   snap.Status,
			Altitude: snap.Altitude,
			Speed:    snap.Speed,
		},
	}, nil
}

// GetTelemetry returns the live snapshot for a connected drone, or the
// reduced view sourced from the persisted record otherwise.
func (s *Service) GetTelemetry(ctx context.Context, droneID string) (*models.TelemetryView, error) {
	drone, err := s.authorizedDrone(ctx, droneID)
	if err != nil {
		return nil, err
	}

	if snap, ok := s.Telemetry.Get(drone.ID); ok {
		return models.LiveTelemetryView(snap), nil
	}
	return models.OfflineTelemetryView(drone), nil
}

// scheduleReturnToHome arms the one-shot landing transition. The timer body
// goes through the telemetry store, which makes it a no-op once the session
// has been torn down.
func (s *Service) scheduleReturnToHome(droneID string) {
	time.AfterFunc(s.flightCfg.ReturnHomeDelay, func() {
		snap, ok := s.Telemetry.Update(droneID, telemetry.CompleteReturnToHome)
		if !ok {
			return
		}
		nuts.L.Infof("[FlightService] Drone %s completed return to home", droneID)
		s.pushTelemetry(droneID, snap)
	})
}

// appendPathPoint records the post-command position on the active flight log
// and refreshes the derived statistics
func (s *Service) appendPathPoint(ctx context.Context, droneID string, snap models.TelemetrySnapshot, now time.Time) {
	flightLog, err := s.FlightLogs.GetActive(ctx, droneID)
	if err != nil {
		if !errors.IsNotFound(err) {
			nuts.L.Warnf("[FlightService] Failed to load active flight log for drone %s: %v", droneID, err)
		}
		return
	}

	flightLog.Path = append(flightLog.Path, models.PathPoint{
		Longitude: snap.Position.Longitude,
		Latitude:  snap.Position.Latitude,
		Altitude:  snap.Altitude,
		Timestamp: now,
	})

	flightLog.MaxAltitude = math.Max(flightLog.MaxAltitude, snap.Altitude)
	flightLog.MaxSpeed = math.Max(flightLog.MaxSpeed, snap.Speed)

	if n := len(flightLog.Path); n > 1 {
		last := flightLog.Path[n-2]
		curr := flightLog.Path[n-1]
		// Planar approximation, good enough for simulated paths
		flightLog.Distance += math.Hypot(
			curr.Longitude-last.Longitude,
			curr.Latitude-last.Latitude,
		) * degreesToMeters
	}

	if err := s.FlightLogs.Update(ctx, flightLog); err != nil {
		nuts.L.Warnf("[FlightService] Failed to update flight log %s: %v", flightLog.ID, err)
	}
}

// pushTelemetry delivers an updated snapshot to hub observers and to the
// external event channel
func (s *Service) pushTelemetry(droneID string, snap models.TelemetrySnapshot) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastTelemetry(droneID, models.LiveTelemetryView(snap))
	}
	if s.events != nil {
		s.events.PublishTelemetry(droneID, snap)
	}
}

// authorizedDrone loads the drone and applies the ownership guard. A failed
// check yields a forbidden error, never a not-found.
func (s *Service) authorizedDrone(ctx context.Context, droneID string) (*models.Drone, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, errors.NewAuthError("no caller identity", nil)
	}

	drone, err := s.Drones.Get(ctx, droneID)
	if err != nil {
		return nil, err
	}

	if !auth.CanAct(user, drone) {
		return nil, errors.NewAuthorizationError("not authorized to access this drone", nil)
	}
	return drone, nil
}
