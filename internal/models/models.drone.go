// FilePath: internal/models/models.drone.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Drone lifecycle status values
const (
	DroneStatusInactive    = "inactive"
	DroneStatusActive      = "active"
	DroneStatusMaintenance = "maintenance"
	DroneStatusFlying      = "flying"
)

type Drone struct {
	ID             string      `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	Model          string      `json:"model" db:"model"`
	SerialNumber   string      `json:"serial_number" db:"serial_number"`
	OwnerID        string      `json:"owner_id" db:"owner_id" writexs:"system,admin"`
	Status         string      `json:"status" db:"status" writexs:"system,admin"`
	BatteryLevel   int         `json:"battery_level" db:"battery_level" writexs:"system,admin"`
	LastConnection *time.Time  `json:"last_connection" db:"last_connection" writexs:"system,admin"`
	Firmware       string      `json:"firmware" db:"firmware"`
	KeyBindings    KeyBindings `json:"key_bindings" db:"key_bindings"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// KeyBindings maps an input symbol (keyboard key, gesture name, voice token)
// to a drone command name. Stored as JSONB.
type KeyBindings map[string]string

// DefaultKeyBindings returns the binding map assigned to new drones
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		"ArrowUp":    "moveUp",
		"ArrowDown":  "moveDown",
		"ArrowLeft":  "moveLeft",
		"ArrowRight": "moveRight",
		"w":          "moveForward",
		"s":          "moveBackward",
		"a":          "rotateLeft",
		"d":          "rotateRight",
		"t":          "takeoff",
		"l":          "land",
		"Escape":     "emergencyStop",
		"Space":      "hover",
		"r":          "returnToHome",
	}
}

// Value implements driver.Valuer for JSONB storage
func (kb KeyBindings) Value() (driver.Value, error) {
	if kb == nil {
		return nil, nil
	}
	return json.Marshal(kb)
}

// Scan implements sql.Scanner for JSONB retrieval
func (kb *KeyBindings) Scan(src any) error {
	if src == nil {
		*kb = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported key_bindings source type %T", src)
	}
	return json.Unmarshal(data, kb)
}

// IsValidDroneStatus reports whether s is a known lifecycle status
func IsValidDroneStatus(s string) bool {
	switch s {
	case DroneStatusInactive, DroneStatusActive, DroneStatusMaintenance, DroneStatusFlying:
		return true
	}
	return false
}
