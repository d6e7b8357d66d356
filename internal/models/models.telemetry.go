// FilePath: internal/models/models.telemetry.go
package models

import "time"

// Telemetry status values for a live session
const (
	TelemetryStatusConnected = "connected"
	TelemetryStatusFlying    = "flying"
	TelemetryStatusLanded    = "landed"
	TelemetryStatusEmergency = "emergency"
	TelemetryStatusReturning = "returning"
)

// Position in geographic coordinates
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// Orientation in degrees
type Orientation struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// TelemetrySnapshot is the ephemeral simulated state of a connected drone.
// It lives only for the duration of a flight session and is never persisted.
type TelemetrySnapshot struct {
	Battery     float64     `json:"battery"`
	Altitude    float64     `json:"altitude"`
	Speed       float64     `json:"speed"`
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
	Status      string      `json:"status"`
	LastUpdated time.Time   `json:"last_updated"`
}

// TelemetryView is what callers receive from a telemetry read. For a live
// session it carries the snapshot with Connected=true; otherwise only the
// fields recoverable from the persisted drone record are set.
type TelemetryView struct {
	Connected      bool         `json:"connected"`
	Battery        float64      `json:"battery"`
	Status         string       `json:"status"`
	LastConnection *time.Time   `json:"last_connection,omitempty"`
	Altitude       *float64     `json:"altitude,omitempty"`
	Speed          *float64     `json:"speed,omitempty"`
	Position       *Position    `json:"position,omitempty"`
	Orientation    *Orientation `json:"orientation,omitempty"`
	LastUpdated    *time.Time   `json:"last_updated,omitempty"`
}

// LiveTelemetryView builds the view for a connected drone
func LiveTelemetryView(snap TelemetrySnapshot) *TelemetryView {
	alt := snap.Altitude
	speed := snap.Speed
	pos := snap.Position
	ori := snap.Orientation
	updated := snap.LastUpdated
	return &TelemetryView{
		Connected:   true,
		Battery:     snap.Battery,
		Status:      snap.Status,
		Altitude:    &alt,
		Speed:       &speed,
		Position:    &pos,
		Orientation: &ori,
		LastUpdated: &updated,
	}
}

// OfflineTelemetryView builds the reduced view for a drone with no live session
func OfflineTelemetryView(drone *Drone) *TelemetryView {
	return &TelemetryView{
		Connected:      false,
		Battery:        float64(drone.BatteryLevel),
		Status:         drone.Status,
		LastConnection: drone.LastConnection,
	}
}

// CommandResult is returned to the caller after a command is applied
type CommandResult struct {
	Success  bool          `json:"success"`
	Command  string        `json:"command"`
	Result   string        `json:"result"`
	NewState *CommandState `json:"new_state,omitempty"`
}

// CommandState is the condensed post-command state echoed in results
type CommandState struct {
	Status   string  `json:"status"`
	Altitude float64 `json:"altitude"`
	Speed    float64 `json:"speed"`
}
