package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/TomSft15/TelloDroneHub/api/middleware"
	"github.com/TomSft15/TelloDroneHub/api/resources"
	"github.com/TomSft15/TelloDroneHub/internal/auth"
	"github.com/TomSft15/TelloDroneHub/internal/droneservice"
	"github.com/TomSft15/TelloDroneHub/internal/stream"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.KeycloakMiddleware
	resources *resources.Resources
	hub       *stream.Hub
}

func NewRouter(svc *droneservice.Service, hub *stream.Hub, keycloakConfig middleware.KeycloakConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewKeycloakMiddleware(keycloakConfig),
		resources: resources.NewResources(svc),
		hub:       hub,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes. The health handler is injected after construction,
	// so route through a closure.
	api.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		r.resources.HealthCheck(w, req)
	}).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Drones
	drones := protected.PathPrefix("/drones").Subrouter()
	drones.HandleFunc("", r.resources.Drones.ListDrones).Methods(http.MethodGet)
	drones.HandleFunc("", r.resources.Drones.CreateDrone).Methods(http.MethodPost)
	drones.HandleFunc("/{id}", r.resources.Drones.GetDrone).Methods(http.MethodGet)
	drones.HandleFunc("/{id}", r.resources.Drones.UpdateDrone).Methods(http.MethodPut)
	drones.HandleFunc("/{id}", r.resources.Drones.DeleteDrone).Methods(http.MethodDelete)
	drones.HandleFunc("/{id}/keyboard-bindings", r.resources.Drones.UpdateKeyBindings).Methods(http.MethodPut)

	// Flights and telemetry
	drones.HandleFunc("/{id}/flight/start", r.resources.Flights.StartFlight).Methods(http.MethodPost)
	drones.HandleFunc("/{id}/flight/end", r.resources.Flights.EndFlight).Methods(http.MethodPost)
	drones.HandleFunc("/{id}/command", r.resources.Flights.SendCommand).Methods(http.MethodPost)
	drones.HandleFunc("/{id}/telemetry", r.resources.Flights.GetTelemetry).Methods(http.MethodGet)
	drones.HandleFunc("/{id}/flight-logs", r.resources.Flights.ListFlightLogs).Methods(http.MethodGet)
	drones.HandleFunc("/{id}/flight-logs/statistics", r.resources.Flights.GetFlightStatistics).Methods(http.MethodGet)
	drones.HandleFunc("/{id}/flight-logs/report", r.resources.Flights.GenerateFlightReport).Methods(http.MethodGet)
	protected.HandleFunc("/flight-logs/{logId}/path", r.resources.Flights.GetFlightPath).Methods(http.MethodGet)

	// Media
	drones.HandleFunc("/{id}/media", r.resources.Media.UploadMedia).Methods(http.MethodPost)
	drones.HandleFunc("/{id}/media", r.resources.Media.ListDroneMedia).Methods(http.MethodGet)
	protected.HandleFunc("/media/{mediaId}", r.resources.Media.GetMedia).Methods(http.MethodGet)
	protected.HandleFunc("/media/{mediaId}/file", r.resources.Media.StreamMedia).Methods(http.MethodGet)
	protected.HandleFunc("/media/{mediaId}", r.resources.Media.DeleteMedia).Methods(http.MethodDelete)

	// Telemetry stream. The upgrade handshake cannot carry an
	// Authorization header from browsers, so the token rides in the
	// query string and is resolved before upgrading.
	api.HandleFunc("/ws", r.serveWS).Methods(http.MethodGet)
}

// SetHealthCheck sets the health check handler
func (r *Router) SetHealthCheck(h func(w http.ResponseWriter, req *http.Request)) {
	r.resources.SetHealthCheck(h)
}

func (r *Router) serveWS(w http.ResponseWriter, req *http.Request) {
	var user *auth.User
	token := req.URL.Query().Get("token")
	if token != "" {
		resolved, err := r.auth.ResolveUser(req, token)
		if err == nil {
			user = resolved
		}
	}
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	stream.ServeWS(r.hub, w, req, user)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
