// FilePath: internal/models/models.flightlog.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Control mode values for a flight
const (
	ControlModeVoice    = "voice"
	ControlModeGesture  = "gesture"
	ControlModeVision   = "vision"
	ControlModeKeyboard = "keyboard"
)

// FlightLog is the persisted record of one flight attempt. A null EndTime
// marks the flight as active; at most one active log exists per drone.
type FlightLog struct {
	ID                 string     `json:"id" db:"id"`
	DroneID            string     `json:"drone_id" db:"drone_id"`
	StartTime          time.Time  `json:"start_time" db:"start_time"`
	EndTime            *time.Time `json:"end_time" db:"end_time"`
	Duration           float64    `json:"duration" db:"duration"`
	MaxAltitude        float64    `json:"max_altitude" db:"max_altitude"`
	MaxSpeed           float64    `json:"max_speed" db:"max_speed"`
	Distance           float64    `json:"distance" db:"distance"`
	BatteryConsumption float64    `json:"battery_consumption" db:"battery_consumption"`
	ControlMode        string     `json:"control_mode" db:"control_mode"`
	Path               FlightPath `json:"path" db:"path"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// PathPoint is one sample of the flight path
type PathPoint struct {
	Longitude float64   `json:"longitude"`
	Latitude  float64   `json:"latitude"`
	Altitude  float64   `json:"altitude"`
	Timestamp time.Time `json:"timestamp"`
}

// FlightPath is the ordered sequence of path points, stored as JSONB
type FlightPath []PathPoint

// Value implements driver.Valuer for JSONB storage
func (p FlightPath) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal(FlightPath{})
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *FlightPath) Scan(src any) error {
	if src == nil {
		*p = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported path source type %T", src)
	}
	return json.Unmarshal(data, p)
}

// IsValidControlMode reports whether m is a known control mode
func IsValidControlMode(m string) bool {
	switch m {
	case ControlModeVoice, ControlModeGesture, ControlModeVision, ControlModeKeyboard:
		return true
	}
	return false
}
