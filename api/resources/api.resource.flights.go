// FilePath: api/resources/api.resource.flights.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/TomSft15/TelloDroneHub/internal/droneservice"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
)

// FlightHandlers encapsulates flight and telemetry HTTP handlers
type FlightHandlers struct {
	service *droneservice.Service
}

type startFlightRequest struct {
	ControlMode string `json:"controlMode"`
}

type commandRequest struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params"`
}

// @Summary Start a flight
// @Description Open a flight session for a drone and bring its telemetry online
// @Tags flights
// @Accept json
// @Produce json
// @Param id path string true "Drone ID"
// @Param request body startFlightRequest false "Flight options"
// @Success 201 {object} droneservice.FlightSession
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /drones/{id}/flight/start [post]
// @Security BearerAuth
func (h *FlightHandlers) StartFlight(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)

	var req startFlightRequest
	// Body is optional; an empty body means keyboard control
	json.NewDecoder(r.Body).Decode(&req)

	session, err := h.service.StartFlight(r.Context(), droneID, req.ControlMode)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to start flight").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, session)
}

// @Summary End a flight
// @Description Close the active flight session and take the drone's telemetry offline
// @Tags flights
// @Produce json
// @Param id path string true "Drone ID"
// @Success 200 {object} droneservice.FlightSession
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /drones/{id}/flight/end [post]
// @Security BearerAuth
func (h *FlightHandlers) EndFlight(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)

	session, err := h.service.EndFlight(r.Context(), droneID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to end flight").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

// @Summary Send a flight command
// @Description Apply a flight command to a connected drone and return the resulting telemetry
// @Tags flights
// @Accept json
// @Produce json
// @Param id path string true "Drone ID"
// @Param request body commandRequest true "Command to execute"
// @Success 200 {object} models.CommandResult
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /drones/{id}/command [post]
// @Security BearerAuth
func (h *FlightHandlers) SendCommand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Command == "" {
		respondWithError(w, errors.NewValidationError("command is required", nil).WithRequestID(requestID))
		return
	}

	result, err := h.service.SendCommand(r.Context(), droneID, req.Command, req.Params)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to execute command").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Get drone telemetry
// @Description Get the current telemetry of a drone; offline drones report a disconnected view
// @Tags flights
// @Produce json
// @Param id path string true "Drone ID"
// @Success 200 {object} models.TelemetryView
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /drones/{id}/telemetry [get]
// @Security BearerAuth
func (h *FlightHandlers) GetTelemetry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)

	view, err := h.service.GetTelemetry(r.Context(), droneID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get telemetry").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

// @Summary List flight logs
// @Description Get a paginated list of a drone's flight logs, newest first
// @Tags flights
// @Produce json
// @Param id path string true "Drone ID"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {array} models.FlightLog
// @Failure 403 {object} errors.APIError
// @Router /drones/{id}/flight-logs [get]
// @Security BearerAuth
func (h *FlightHandlers) ListFlightLogs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)
	offset, limit := getPaginationParams(r)

	logs, err := h.service.ListFlightLogs(r.Context(), droneID, offset, limit)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to list flight logs").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}

// @Summary Get a flight path
// @Description Get the recorded GPS path of a single flight
// @Tags flights
// @Produce json
// @Param logId path string true "Flight log ID"
// @Success 200 {object} droneservice.FlightPathData
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /flight-logs/{logId}/path [get]
// @Security BearerAuth
func (h *FlightHandlers) GetFlightPath(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	logID := vars["logId"]
	requestID := nuts.NID("req", 12)

	path, err := h.service.GetFlightPath(r.Context(), logID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get flight path").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, path)
}

// @Summary Get flight statistics
// @Description Get aggregate statistics over a drone's completed flights
// @Tags flights
// @Produce json
// @Param id path string true "Drone ID"
// @Success 200 {object} droneservice.FlightStatistics
// @Failure 403 {object} errors.APIError
// @Router /drones/{id}/flight-logs/statistics [get]
// @Security BearerAuth
func (h *FlightHandlers) GetFlightStatistics(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)

	stats, err := h.service.GetFlightStatistics(r.Context(), droneID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get flight statistics").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// @Summary Generate a flight report
// @Description Generate a per-day flight activity report for a drone over a date range
// @Tags flights
// @Produce json
// @Param id path string true "Drone ID"
// @Param startDate query string false "Report start date (RFC 3339)"
// @Param endDate query string false "Report end date (RFC 3339)"
// @Success 200 {object} droneservice.FlightReport
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /drones/{id}/flight-logs/report [get]
// @Security BearerAuth
func (h *FlightHandlers) GenerateFlightReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	droneID := vars["id"]
	requestID := nuts.NID("req", 12)

	var query droneservice.ReportQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid report query", err).WithRequestID(requestID))
		return
	}

	report, err := h.service.GenerateFlightReport(r.Context(), droneID, query)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to generate flight report").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
