// FilePath: api/resources/api.resource.media.go
package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/TomSft15/TelloDroneHub/internal/droneservice"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
)

// MediaHandlers encapsulates media capture HTTP handlers
type MediaHandlers struct {
	service *droneservice.Service
}

// maxUploadMemory bounds the in-memory portion of multipart parsing;
// larger files spill to temp files.
const maxUploadMemory = 32 << 20

// @Summary Upload captured media
// @Description Upload a photo or video captured by a drone
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Drone ID"
// @Param type formData string true "Media type (photo or video)"
// @Param file formData file true "File to upload"
// @Success 201 {object} models.Media
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 413 {object} errors.APIError
// @Router /drones/{id}/media [post]
// @Security BearerAuth
func (h *MediaHandlers) UploadMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondWithError(w, errors.NewValidationError("invalid multipart form", err).WithRequestID(requestID))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid file upload", err).WithRequestID(requestID))
		return
	}
	file.Close()

	media := &models.Media{
		Type: r.FormValue("type"),
	}

	if err := h.service.UploadMedia(r.Context(), droneID, media, header); err != nil {
		respondWithError(w, asAPIError(err, "failed to upload media").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, media)
}

// @Summary List drone media
// @Description Get the media captured by a drone, optionally filtered by type
// @Tags media
// @Produce json
// @Param id path string true "Drone ID"
// @Param type query string false "Filter by media type (photo or video)"
// @Success 200 {array} models.Media
// @Failure 403 {object} errors.APIError
// @Router /drones/{id}/media [get]
// @Security BearerAuth
func (h *MediaHandlers) ListDroneMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)

	var filters models.MediaFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid media filters", err).WithRequestID(requestID))
		return
	}

	media, err := h.service.ListDroneMedia(r.Context(), droneID, filters)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to list media").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, media)
}

// @Summary Get media metadata
// @Description Get the metadata of a single media record
// @Tags media
// @Produce json
// @Param mediaId path string true "Media ID"
// @Success 200 {object} models.Media
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /media/{mediaId} [get]
// @Security BearerAuth
func (h *MediaHandlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaID := vars["mediaId"]
	requestID := nuts.NID("req", 12)

	media, err := h.service.GetMedia(r.Context(), mediaID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get media").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, media)
}

// @Summary Download a media file
// @Description Stream the stored file contents of a media record
// @Tags media
// @Produce octet-stream
// @Param mediaId path string true "Media ID"
// @Success 200 {file} binary
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /media/{mediaId}/file [get]
// @Security BearerAuth
func (h *MediaHandlers) StreamMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaID := vars["mediaId"]
	requestID := nuts.NID("req", 12)

	media, err := h.service.GetMedia(r.Context(), mediaID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get media").WithRequestID(requestID))
		return
	}

	w.Header().Set("Content-Type", media.MimeType)
	w.Header().Set("Content-Disposition", "attachment; filename="+media.Name)

	if _, err := h.service.StreamMedia(r.Context(), mediaID, w); err != nil {
		// Headers are already written; all we can do is log
		nuts.L.Errorf("[API] failed to stream media %s: %v", mediaID, err)
	}
}

// @Summary Delete media
// @Description Delete a media record and its stored file
// @Tags media
// @Param mediaId path string true "Media ID"
// @Success 204 "No Content"
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /media/{mediaId} [delete]
// @Security BearerAuth
func (h *MediaHandlers) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaID := vars["mediaId"]
	requestID := nuts.NID("req", 12)

	if err := h.service.DeleteMedia(r.Context(), mediaID); err != nil {
		respondWithError(w, asAPIError(err, "failed to delete media").WithRequestID(requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
