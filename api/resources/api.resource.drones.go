// FilePath: api/resources/api.resource.drones.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/TomSft15/TelloDroneHub/internal/droneservice"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
)

// DroneHandlers encapsulates the drone-related HTTP handlers
type DroneHandlers struct {
	service *droneservice.Service
}

// @Summary Register a new drone
// @Description Register a new drone owned by the authenticated user
// @Tags drones
// @Accept json
// @Produce json
// @Param drone body models.Drone true "Drone details"
// @Success 201 {object} models.Drone
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /drones [post]
// @Security BearerAuth
func (h *DroneHandlers) CreateDrone(w http.ResponseWriter, r *http.Request) {
	var drone models.Drone
	requestID := nuts.NID("req", 12)

	if err := json.NewDecoder(r.Body).Decode(&drone); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	if err := h.service.CreateDrone(r.Context(), &drone); err != nil {
		respondWithError(w, asAPIError(err, "failed to create drone").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, drone)
}

// @Summary Get a drone by ID
// @Description Get detailed information about a specific drone
// @Tags drones
// @Produce json
// @Param id path string true "Drone ID"
// @Success 200 {object} models.Drone
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /drones/{id} [get]
// @Security BearerAuth
func (h *DroneHandlers) GetDrone(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	drone, err := h.service.GetDrone(r.Context(), id)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get drone").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, drone)
}

// @Summary List drones
// @Description Get a paginated list of the caller's drones; admins see every drone
// @Tags drones
// @Produce json
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {array} models.Drone
// @Router /drones [get]
// @Security BearerAuth
func (h *DroneHandlers) ListDrones(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	offset, limit := getPaginationParams(r)

	drones, err := h.service.ListDrones(r.Context(), offset, limit)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to list drones").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, drones)
}

// @Summary Update a drone
// @Description Update an existing drone's details
// @Tags drones
// @Accept json
// @Produce json
// @Param id path string true "Drone ID"
// @Param drone body models.Drone true "Updated drone details"
// @Success 200 {object} models.Drone
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /drones/{id} [put]
// @Security BearerAuth
func (h *DroneHandlers) UpdateDrone(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var drone models.Drone
	if err := json.NewDecoder(r.Body).Decode(&drone); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	drone.ID = id
	updated, err := h.service.UpdateDrone(r.Context(), &drone)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to update drone").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// @Summary Delete a drone
// @Description Delete a drone and all its flight logs and media
// @Tags drones
// @Param id path string true "Drone ID"
// @Success 204 "No Content"
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /drones/{id} [delete]
// @Security BearerAuth
func (h *DroneHandlers) DeleteDrone(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	if err := h.service.DeleteDrone(r.Context(), id); err != nil {
		respondWithError(w, asAPIError(err, "failed to delete drone").WithRequestID(requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Update keyboard bindings
// @Description Replace the key-to-command bindings used for keyboard control of a drone
// @Tags drones
// @Accept json
// @Produce json
// @Param id path string true "Drone ID"
// @Param bindings body models.KeyBindings true "Key bindings"
// @Success 200 {object} models.Drone
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /drones/{id}/keyboard-bindings [put]
// @Security BearerAuth
func (h *DroneHandlers) UpdateKeyBindings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var bindings models.KeyBindings
	if err := json.NewDecoder(r.Body).Decode(&bindings); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	drone, err := h.service.UpdateKeyBindings(r.Context(), id, bindings)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to update key bindings").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, drone)
}
