// FilePath: internal/stream/client.go
package stream

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/auth"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// newUpgrader applies the same origin allow-list the HTTP middleware uses
// to the WebSocket handshake. Requests without an Origin header (non-browser
// clients) are accepted.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Client is one connected observer. Subscriptions live exactly as long as
// the connection: when the read loop ends the client leaves every room and
// its periodic ticker stops. The send channel is never closed; the read
// loop signals shutdown through done so the write loop can exit without
// racing late pushes.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	user *auth.User
	send chan Event
	done chan struct{}

	mu            sync.Mutex
	subscriptions map[string]bool
}

// inboundMessage is what observers send over the socket
type inboundMessage struct {
	Action  string                 `json:"action"`
	DroneID string                 `json:"drone_id"`
	Command string                 `json:"command,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Observer actions
const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionCommand     = "command"
	actionTelemetry   = "telemetry"
)

// newClient builds a client; conn may be nil in tests that drive the hub
// directly
func newClient(hub *Hub, conn *websocket.Conn, user *auth.User) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		user:          user,
		send:          make(chan Event, sendBufferSize),
		done:          make(chan struct{}),
		subscriptions: make(map[string]bool),
	}
}

// ServeWS upgrades the request and runs the observer connection. The caller
// must have authenticated the user already.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, user *auth.User) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Errorf("[StreamHub] WebSocket upgrade failed: %v", err)
		return
	}

	client := newClient(hub, conn, user)
	nuts.L.Infof("[StreamHub] Observer connected: %s", user.Username)

	go client.writePump()
	client.readPump()
}

// push queues an event for delivery, dropping it when the observer cannot
// keep up
func (c *Client) push(event Event) {
	select {
	case c.send <- event:
	default:
		nuts.L.Warnf("[StreamHub] Dropping event for slow observer %s", c.user.Username)
	}
}

func (c *Client) addSubscription(droneID string) {
	c.mu.Lock()
	c.subscriptions[droneID] = true
	c.mu.Unlock()
}

func (c *Client) removeSubscription(droneID string) {
	c.mu.Lock()
	delete(c.subscriptions, droneID)
	c.mu.Unlock()
}

func (c *Client) clearSubscriptions() {
	c.mu.Lock()
	c.subscriptions = make(map[string]bool)
	c.mu.Unlock()
}

func (c *Client) subscriptionList() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		ids = append(ids, id)
	}
	return ids
}

// readPump consumes observer messages until the connection closes, then
// drops the client from every room
func (c *Client) readPump() {
	defer func() {
		c.hub.dropClient(c)
		close(c.done)
		c.conn.Close()
		nuts.L.Infof("[StreamHub] Observer disconnected: %s", c.user.Username)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				nuts.L.Warnf("[StreamHub] Read error for observer %s: %v", c.user.Username, err)
			}
			return
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg inboundMessage) {
	ctx := auth.WithUser(context.Background(), c.user)

	switch msg.Action {
	case actionSubscribe:
		if err := c.hub.Subscribe(ctx, c, msg.DroneID); err != nil {
			c.pushError(msg.DroneID, err)
		}
	case actionUnsubscribe:
		c.hub.Unsubscribe(c, msg.DroneID)
	case actionCommand:
		result, err := c.hub.service.SendCommand(ctx, msg.DroneID, msg.Command, msg.Params)
		if err != nil {
			c.pushError(msg.DroneID, err)
			return
		}
		// The result goes to the actor only; the telemetry broadcast to
		// the whole room happens inside the service
		c.push(Event{Type: EventCommandResult, DroneID: msg.DroneID, Result: result})
	case actionTelemetry:
		view, err := c.hub.service.GetTelemetry(ctx, msg.DroneID)
		if err != nil {
			c.pushError(msg.DroneID, err)
			return
		}
		c.push(Event{Type: EventTelemetry, DroneID: msg.DroneID, Telemetry: view})
	default:
		c.pushError(msg.DroneID, errors.NewValidationError("unknown action: "+msg.Action, nil))
	}
}

func (c *Client) pushError(droneID string, err error) {
	apiErr, ok := err.(*errors.APIError)
	if !ok {
		apiErr = errors.NewInternalError("unexpected error", err)
	}
	c.push(Event{Type: EventError, DroneID: droneID, Error: apiErr})
}

// writePump delivers queued events and drives the periodic telemetry tick.
// The ticker dies with the connection; no tick ever outlives its observer.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.broadcastInterval)
	pinger := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		pinger.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.hub.tickTelemetry(c)
		case <-pinger.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
