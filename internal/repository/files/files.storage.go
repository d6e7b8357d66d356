// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/TomSft15/TelloDroneHub/internal/config"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultPermissions = 0755
	defaultDateFormat  = "20060102_150405"
)

// FileRepo stores captured media files on local disk under a base path,
// one directory per drone
type FileRepo struct {
	config config.FileStoreConfig
}

// NewFileRepository creates a new media file storage repository
func NewFileRepository(cfg config.FileStoreConfig) (*FileRepo, error) {
	if err := createDirectoryIfNotExists(cfg.BasePath); err != nil {
		return nil, err
	}
	return &FileRepo{config: cfg}, nil
}

func (r *FileRepo) Store(ctx context.Context, media *models.Media, fileData *multipart.FileHeader) error {
	// Validate file size
	if fileData.Size > r.config.MaxFileSize {
		return errors.NewValidationError("file size exceeds maximum allowed size", nil)
	}

	// Validate mime type
	if !r.isAllowedMimeType(media.MimeType) {
		return errors.NewValidationError("unsupported file type", nil)
	}

	// Generate file path
	filePath := r.generateFilePath(media)
	media.FilePath = filePath
	media.FileSize = fileData.Size

	// Create directory structure
	dirPath := filepath.Dir(filepath.Join(r.config.BasePath, filePath))
	if err := createDirectoryIfNotExists(dirPath); err != nil {
		return err
	}

	// Open source file
	src, err := fileData.Open()
	if err != nil {
		return errors.NewInternalError("failed to open source file", err)
	}
	defer src.Close()

	// Create destination file
	dst, err := os.Create(filepath.Join(r.config.BasePath, filePath))
	if err != nil {
		return errors.NewInternalError("failed to create destination file", err)
	}
	defer dst.Close()

	// Copy file
	if _, err = io.Copy(dst, src); err != nil {
		return errors.NewInternalError("failed to copy file", err)
	}

	nuts.L.Infof("[FileRepo] Stored media file: %s", filePath)
	return nil
}

// StreamFile copies the stored file to w
func (r *FileRepo) StreamFile(ctx context.Context, media *models.Media, w io.Writer) error {
	f, err := os.Open(filepath.Join(r.config.BasePath, media.FilePath))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("media file not found", err)
		}
		return errors.NewInternalError("failed to open media file", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.NewInternalError("failed to stream media file", err)
	}
	return nil
}

func (r *FileRepo) Delete(ctx context.Context, media *models.Media) error {
	err := os.Remove(filepath.Join(r.config.BasePath, media.FilePath))
	if err != nil && !os.IsNotExist(err) {
		return errors.NewInternalError("failed to delete media file", err)
	}
	return nil
}

func (r *FileRepo) generateFilePath(media *models.Media) string {
	timestamp := media.CreatedAt.Format(defaultDateFormat)
	filename := fmt.Sprintf("%s_%s%s", timestamp, media.ID, extensionForMime(media.MimeType))
	return filepath.Join(media.DroneID, media.Type, filename)
}

func (r *FileRepo) isAllowedMimeType(mimeType string) bool {
	for _, allowed := range r.config.AllowedMimeTypes {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

func extensionForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	default:
		return ""
	}
}

func createDirectoryIfNotExists(path string) error {
	if err := os.MkdirAll(path, defaultPermissions); err != nil {
		return errors.NewInternalError("failed to create directory", err)
	}
	return nil
}
