// FilePath: internal/stream/hub.go
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/auth"
	"github.com/TomSft15/TelloDroneHub/internal/droneservice"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

// Event push types
const (
	EventTelemetry     = "telemetry"
	EventError         = "error"
	EventCommandResult = "command_result"
)

// Event is one message pushed to an observer
type Event struct {
	Type      string                `json:"type"`
	DroneID   string                `json:"drone_id,omitempty"`
	Telemetry *models.TelemetryView `json:"telemetry,omitempty"`
	Result    *models.CommandResult `json:"result,omitempty"`
	Error     *errors.APIError      `json:"error,omitempty"`
}

// Hub tracks which observers are subscribed to which drones and fans
// telemetry out to them. It is transport-agnostic: observers are clients
// with a buffered send channel; the websocket layer lives in client.go.
type Hub struct {
	service           *droneservice.Service
	broadcastInterval time.Duration
	upgrader          websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

// NewHub creates a hub bound to the drone service. allowedOrigins governs
// the WebSocket handshake the same way it governs CORS on the HTTP side.
func NewHub(service *droneservice.Service, broadcastInterval time.Duration, allowedOrigins []string) *Hub {
	return &Hub{
		service:           service,
		broadcastInterval: broadcastInterval,
		upgrader:          newUpgrader(allowedOrigins),
		rooms:             make(map[string]map[*Client]bool),
	}
}

// BroadcastTelemetry pushes a telemetry view to every observer of the drone.
// Implements droneservice.Broadcaster.
func (h *Hub) BroadcastTelemetry(droneID string, view *models.TelemetryView) {
	event := Event{Type: EventTelemetry, DroneID: droneID, Telemetry: view}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[droneID] {
		client.push(event)
	}
}

// Subscribe adds the client to the drone's room after the ownership guard
// passes. On denial the client is not added anywhere and the error is
// returned for the transport to report.
func (h *Hub) Subscribe(ctx context.Context, client *Client, droneID string) error {
	// GetDrone applies the owner-or-admin guard
	if _, err := h.service.GetDrone(ctx, droneID); err != nil {
		return err
	}

	h.mu.Lock()
	room, ok := h.rooms[droneID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[droneID] = room
	}
	room[client] = true
	h.mu.Unlock()

	client.addSubscription(droneID)
	nuts.L.Infof("[StreamHub] Observer %s subscribed to drone %s", client.user.Username, droneID)

	// Initial telemetry push, best-effort
	if view, err := h.service.GetTelemetry(ctx, droneID); err == nil {
		client.push(Event{Type: EventTelemetry, DroneID: droneID, Telemetry: view})
	} else {
		nuts.L.Warnf("[StreamHub] Failed to send initial telemetry for drone %s: %v", droneID, err)
	}
	return nil
}

// Unsubscribe removes the client from the drone's room. Idempotent: it is a
// no-op when the client was never subscribed.
func (h *Hub) Unsubscribe(client *Client, droneID string) {
	h.mu.Lock()
	if room, ok := h.rooms[droneID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, droneID)
		}
	}
	h.mu.Unlock()

	client.removeSubscription(droneID)
	nuts.L.Infof("[StreamHub] Observer %s unsubscribed from drone %s", client.user.Username, droneID)
}

// dropClient removes the client from every room on disconnect and clears
// its subscription set so a late telemetry tick has nothing to push
func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	for droneID, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, droneID)
		}
	}
	h.mu.Unlock()

	client.clearSubscriptions()
}

// observerCount reports how many observers a drone currently has
func (h *Hub) observerCount(droneID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[droneID])
}

// tickTelemetry pushes current telemetry for each of the client's
// subscriptions. Only live sessions are pushed; a disconnected drone never
// produces periodic traffic.
func (h *Hub) tickTelemetry(client *Client) {
	ctx := auth.WithUser(context.Background(), client.user)
	for _, droneID := range client.subscriptionList() {
		view, err := h.service.GetTelemetry(ctx, droneID)
		if err != nil {
			nuts.L.Warnf("[StreamHub] Periodic telemetry failed for drone %s: %v", droneID, err)
			continue
		}
		if !view.Connected {
			continue
		}
		client.push(Event{Type: EventTelemetry, DroneID: droneID, Telemetry: view})
	}
}
