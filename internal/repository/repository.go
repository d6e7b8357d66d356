// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/database"
	"github.com/TomSft15/TelloDroneHub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// DroneRepository defines the interface for drone record operations
type DroneRepository interface {
	database.Repository
	Create(ctx context.Context, drone *models.Drone) error
	Get(ctx context.Context, id string) (*models.Drone, error)
	Update(ctx context.Context, drone *models.Drone) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.Drone, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*models.Drone, error)
	UpdateStatus(ctx context.Context, id, status string, lastConnection time.Time) error
	UpdateBattery(ctx context.Context, id string, batteryLevel int) error
	UpdateKeyBindings(ctx context.Context, id string, bindings models.KeyBindings) error
}

// FlightLogRepository defines the interface for flight log operations
type FlightLogRepository interface {
	database.Repository
	Create(ctx context.Context, log *models.FlightLog) error
	Get(ctx context.Context, id string) (*models.FlightLog, error)
	Update(ctx context.Context, log *models.FlightLog) error
	ListByDrone(ctx context.Context, droneID string, offset, limit int) ([]*models.FlightLog, error)
	// GetActive returns the most recently started flight log with a null end
	// time for the drone, or a not-found error when no flight is active.
	GetActive(ctx context.Context, droneID string) (*models.FlightLog, error)
	ListCompleted(ctx context.Context, droneID string, start, end *time.Time) ([]*models.FlightLog, error)
	DeleteByDrone(ctx context.Context, droneID string, tx database.Transaction) error
}

// MediaRepository defines the interface for captured media records
type MediaRepository interface {
	database.Repository
	Create(ctx context.Context, media *models.Media) error
	Get(ctx context.Context, id string) (*models.Media, error)
	Delete(ctx context.Context, id string) error
	ListByDrone(ctx context.Context, droneID string, filters models.MediaFilters) ([]*models.Media, error)
	DeleteByDrone(ctx context.Context, droneID string, tx database.Transaction) error
}

// FileRepository defines the interface for media file storage
type FileRepository interface {
	Store(ctx context.Context, media *models.Media, fileData *multipart.FileHeader) error
	Delete(ctx context.Context, media *models.Media) error
	StreamFile(ctx context.Context, media *models.Media, w io.Writer) error
}
