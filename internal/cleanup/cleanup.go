package cleanup

import (
	"context"
	"fmt"

	"github.com/TomSft15/TelloDroneHub/internal/models"
	"github.com/TomSft15/TelloDroneHub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// CleanupService coordinates deletion of hierarchical data
type CleanupService struct {
	drones     repository.DroneRepository
	flightLogs repository.FlightLogRepository
	media      repository.MediaRepository
	files      repository.FileRepository
	events     *nuts.EventEmitter
}

// New creates a new CleanupService
func New(
	drones repository.DroneRepository,
	flightLogs repository.FlightLogRepository,
	media repository.MediaRepository,
	files repository.FileRepository,
) *CleanupService {
	return &CleanupService{
		drones:     drones,
		flightLogs: flightLogs,
		media:      media,
		files:      files,
		events:     nuts.NewEventEmitter(),
	}
}

// DeleteDrone deletes a drone and all its associated data
func (s *CleanupService) DeleteDrone(ctx context.Context, droneID string) error {
	// Start transaction
	tx, err := s.drones.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	// Collect media first so the files can be removed from disk afterwards
	mediaRecords, err := s.media.ListByDrone(ctx, droneID, models.MediaFilters{})
	if err != nil {
		return fmt.Errorf("failed to list media: %w", err)
	}

	// Delete flight logs
	if err := s.flightLogs.DeleteByDrone(ctx, droneID, tx); err != nil {
		return fmt.Errorf("failed to delete flight logs: %w", err)
	}
	s.events.Emit("flightlogs.deleted", droneID)

	// Delete media records
	if err := s.media.DeleteByDrone(ctx, droneID, tx); err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	// Finally, delete the drone
	if err := s.drones.Delete(ctx, droneID); err != nil {
		return fmt.Errorf("failed to delete drone: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Stored files are removed only after the records are gone
	for _, media := range mediaRecords {
		if err := s.files.Delete(ctx, media); err != nil {
			nuts.L.Warnf("[Cleanup] Failed to delete media file %s: %v", media.FilePath, err)
		}
		s.events.Emit("media.deleted", media.ID)
	}

	// Emit event after successful deletion
	s.events.Emit("drone.deleted", droneID)
	return nil
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, "cleanup_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
