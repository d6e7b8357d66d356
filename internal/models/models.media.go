// FilePath: internal/models/models.media.go
package models

import "time"

// Media type values
const (
	MediaTypePhoto = "photo"
	MediaTypeVideo = "video"
)

// Media is a captured photo or video associated with a drone
type Media struct {
	ID        string    `json:"id" db:"id"`
	DroneID   string    `json:"drone_id" db:"drone_id"`
	Type      string    `json:"type" db:"type"`
	Name      string    `json:"name" db:"name"`
	FilePath  string    `json:"file_path" db:"file_path"`
	FileSize  int64     `json:"file_size" db:"file_size"`
	MimeType  string    `json:"mime_type" db:"mime_type"`
	Width     int       `json:"width" db:"width"`
	Height    int       `json:"height" db:"height"`
	Duration  float64   `json:"duration" db:"duration"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MediaFilters narrows media listings
type MediaFilters struct {
	Type string `schema:"type"`
}

// IsValidMediaType reports whether t is a known media type
func IsValidMediaType(t string) bool {
	return t == MediaTypePhoto || t == MediaTypeVideo
}
