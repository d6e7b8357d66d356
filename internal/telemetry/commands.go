// FilePath: internal/telemetry/commands.go
package telemetry

import (
	"fmt"
	"math"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/models"
)

// Drone command names
const (
	CommandTakeoff       = "takeoff"
	CommandLand          = "land"
	CommandMoveUp        = "moveUp"
	CommandMoveDown      = "moveDown"
	CommandMoveForward   = "moveForward"
	CommandMoveBackward  = "moveBackward"
	CommandMoveLeft      = "moveLeft"
	CommandMoveRight     = "moveRight"
	CommandRotateLeft    = "rotateLeft"
	CommandRotateRight   = "rotateRight"
	CommandHover         = "hover"
	CommandEmergencyStop = "emergencyStop"
	CommandReturnToHome  = "returnToHome"
)

const (
	altitudeStep   = 0.5
	positionStep   = 0.0001
	yawStep        = 10.0
	moveSpeed      = 2.0
	batteryPerStep = 0.1
)

// Outcome describes what a command application produced besides the snapshot
type Outcome struct {
	Result string
	// Known is false for commands outside the command set. Unknown commands
	// still succeed and still cost battery; only the caller's log line
	// distinguishes them.
	Known bool
	// ReturnToHome signals that the caller must schedule the delayed
	// landing transition.
	ReturnToHome bool
}

// Apply computes the snapshot resulting from one command. It is a pure
// transition function: no I/O, no clock reads, no scheduling. The delayed
// part of returnToHome is the caller's responsibility.
func Apply(snap models.TelemetrySnapshot, command string, params map[string]interface{}, now time.Time) (models.TelemetrySnapshot, Outcome) {
	outcome := Outcome{
		Result: fmt.Sprintf("Command %s executed successfully", command),
		Known:  true,
	}

	switch command {
	case CommandTakeoff:
		snap.Altitude = 1.0
		snap.Status = models.TelemetryStatusFlying
	case CommandLand:
		snap.Altitude = 0
		snap.Speed = 0
		snap.Status = models.TelemetryStatusLanded
	case CommandMoveUp:
		snap.Altitude += altitudeStep
	case CommandMoveDown:
		snap.Altitude = math.Max(0, snap.Altitude-altitudeStep)
	case CommandMoveForward:
		snap.Position.Latitude += positionStep
		snap.Speed = moveSpeed
	case CommandMoveBackward:
		snap.Position.Latitude -= positionStep
		snap.Speed = moveSpeed
	case CommandMoveLeft:
		snap.Position.Longitude -= positionStep
		snap.Speed = moveSpeed
	case CommandMoveRight:
		snap.Position.Longitude += positionStep
		snap.Speed = moveSpeed
	case CommandRotateLeft:
		snap.Orientation.Yaw = wrapDegrees(snap.Orientation.Yaw - yawStep)
	case CommandRotateRight:
		snap.Orientation.Yaw = wrapDegrees(snap.Orientation.Yaw + yawStep)
	case CommandHover:
		snap.Speed = 0
	case CommandEmergencyStop:
		snap.Speed = 0
		snap.Status = models.TelemetryStatusEmergency
	case CommandReturnToHome:
		snap.Status = models.TelemetryStatusReturning
		outcome.ReturnToHome = true
	default:
		outcome.Known = false
	}

	// Every invocation costs battery, known command or not
	snap.Battery = math.Max(0, snap.Battery-batteryPerStep)
	snap.LastUpdated = now

	return snap, outcome
}

// CompleteReturnToHome is the delayed tail of the returnToHome command
func CompleteReturnToHome(snap *models.TelemetrySnapshot) {
	snap.Status = models.TelemetryStatusLanded
	snap.Altitude = 0
	snap.Speed = 0
}

// wrapDegrees normalizes an angle into [0, 360)
func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
