// FilePath: internal/droneservice/droneservice.media.go
package droneservice

import (
	"context"
	"io"
	"mime/multipart"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// UploadMedia stores a captured photo or video for a drone
func (s *Service) UploadMedia(ctx context.Context, droneID string, media *models.Media, fileData *multipart.FileHeader) error {
	if _, err := s.authorizedDrone(ctx, droneID); err != nil {
		return err
	}

	if !models.IsValidMediaType(media.Type) {
		return errors.NewValidationError("media type must be photo or video", nil)
	}

	media.ID = nuts.NID("md", 12)
	media.DroneID = droneID
	media.CreatedAt = time.Now()
	if media.Name == "" {
		media.Name = fileData.Filename
	}
	media.MimeType = fileData.Header.Get("Content-Type")

	if err := s.Files.Store(ctx, media, fileData); err != nil {
		return err
	}

	if err := s.Media.Create(ctx, media); err != nil {
		// Do not leave an orphaned file behind
		if delErr := s.Files.Delete(ctx, media); delErr != nil {
			nuts.L.Warnf("[MediaService] Failed to remove orphaned file %s: %v", media.FilePath, delErr)
		}
		return err
	}

	nuts.L.Infof("[MediaService] Stored %s %s for drone %s", media.Type, media.ID, droneID)
	return nil
}

// ListDroneMedia returns media records for a drone, optionally filtered by type
func (s *Service) ListDroneMedia(ctx context.Context, droneID string, filters models.MediaFilters) ([]*models.Media, error) {
	if _, err := s.authorizedDrone(ctx, droneID); err != nil {
		return nil, err
	}

	if filters.Type != "" && !models.IsValidMediaType(filters.Type) {
		return nil, errors.NewValidationError("media type must be photo or video", nil)
	}
	return s.Media.ListByDrone(ctx, droneID, filters)
}

// GetMedia loads one media record, gated by the owning drone
func (s *Service) GetMedia(ctx context.Context, mediaID string) (*models.Media, error) {
	media, err := s.Media.Get(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizedDrone(ctx, media.DroneID); err != nil {
		return nil, err
	}
	return media, nil
}

// StreamMedia writes the stored file to w
func (s *Service) StreamMedia(ctx context.Context, mediaID string, w io.Writer) (*models.Media, error) {
	media, err := s.GetMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if err := s.Files.StreamFile(ctx, media, w); err != nil {
		return nil, err
	}
	return media, nil
}

// DeleteMedia removes the record and its file
func (s *Service) DeleteMedia(ctx context.Context, mediaID string) error {
	media, err := s.GetMedia(ctx, mediaID)
	if err != nil {
		return err
	}

	if err := s.Media.Delete(ctx, mediaID); err != nil {
		return err
	}
	if err := s.Files.Delete(ctx, media); err != nil {
		nuts.L.Warnf("[MediaService] Failed to delete file for media %s: %v", mediaID, err)
	}
	return nil
}
