// FilePath: internal/droneservice/droneservice.drone.go
package droneservice

import (
	"context"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/auth"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	"github.com/itsatony/struccy"
	nuts "github.com/vaudience/go-nuts"
)

// CreateDrone registers a new drone owned by the caller
func (s *Service) CreateDrone(ctx context.Context, drone *models.Drone) error {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return errors.NewAuthError("no caller identity", nil)
	}

	// Validate required fields
	if drone.Name == "" {
		return errors.NewValidationError("drone name is required", nil)
	}
	if drone.Model == "" {
		return errors.NewValidationError("drone model is required", nil)
	}
	if drone.SerialNumber == "" {
		return errors.NewValidationError("drone serial number is required", nil)
	}

	if drone.ID == "" {
		drone.ID = nuts.NID("dr", 12)
	}

	now := time.Now()
	drone.OwnerID = user.ID
	drone.CreatedAt = now
	drone.UpdatedAt = now

	// Initialize optional fields with defaults
	if drone.Status == "" {
		drone.Status = models.DroneStatusInactive
	}
	if !models.IsValidDroneStatus(drone.Status) {
		return errors.NewValidationError("unknown drone status: "+drone.Status, nil)
	}
	if drone.BatteryLevel == 0 {
		drone.BatteryLevel = 100
	}
	if drone.Firmware == "" {
		drone.Firmware = "1.0.0"
	}
	if drone.KeyBindings == nil {
		drone.KeyBindings = models.DefaultKeyBindings()
	}

	nuts.L.Infof("[DroneService] Creating new drone: %s (%s) for user %s", drone.Name, drone.ID, user.ID)
	return s.Drones.Create(ctx, drone)
}

// GetDrone retrieves a drone, gated by the ownership guard
func (s *Service) GetDrone(ctx context.Context, id string) (*models.Drone, error) {
	return s.authorizedDrone(ctx, id)
}

// ListDrones returns the caller's drones, or every drone for admins
func (s *Service) ListDrones(ctx context.Context, offset, limit int) ([]*models.Drone, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, errors.NewAuthError("no caller identity", nil)
	}

	if limit <= 0 || limit > 100 {
		limit = 50 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	if user.IsAdmin() {
		return s.Drones.List(ctx, offset, limit)
	}
	return s.Drones.ListByOwner(ctx, user.ID, offset, limit)
}

// UpdateDrone updates an existing drone with role-scoped field access.
// Ownership never changes through this path.
func (s *Service) UpdateDrone(ctx context.Context, drone *models.Drone) (*models.Drone, error) {
	existing, err := s.authorizedDrone(ctx, drone.ID)
	if err != nil {
		return nil, err
	}

	user, _ := auth.UserFromContext(ctx)
	roles := auth.EffectiveRoles(user, existing)

	drone.OwnerID = existing.OwnerID
	updatedFields, _, err := struccy.UpdateStructFields(existing, drone, roles, true, true)
	if err != nil {
		return nil, errors.NewAuthorizationError("unauthorized field update", err)
	}

	existing.UpdatedAt = time.Now()

	nuts.L.Infof("[DroneService] Updating drone %s, fields changed: %v", existing.ID, updatedFields)
	if err := s.Drones.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteDrone removes a drone and cascades to its flight logs and media
func (s *Service) DeleteDrone(ctx context.Context, id string) error {
	drone, err := s.authorizedDrone(ctx, id)
	if err != nil {
		return err
	}

	if drone.Status == models.DroneStatusFlying {
		return errors.NewInvalidStateError("cannot delete a flying drone", nil)
	}

	nuts.L.Infof("[DroneService] Deleting drone: %s", id)
	return s.Cleanup.DeleteDrone(ctx, id)
}

// UpdateKeyBindings replaces the drone's input binding map
func (s *Service) UpdateKeyBindings(ctx context.Context, id string, bindings models.KeyBindings) (*models.Drone, error) {
	drone, err := s.authorizedDrone(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(bindings) == 0 {
		return nil, errors.NewValidationError("key bindings must not be empty", nil)
	}
	for key, command := range bindings {
		if key == "" || command == "" {
			return nil, errors.NewValidationError("key bindings must map symbols to command names", nil)
		}
	}

	if err := s.Drones.UpdateKeyBindings(ctx, id, bindings); err != nil {
		return nil, err
	}

	drone.KeyBindings = bindings
	nuts.L.Infof("[DroneService] Updated key bindings for drone %s", id)
	return drone, nil
}
