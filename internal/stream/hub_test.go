package stream

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/auth"
	"github.com/TomSft15/TelloDroneHub/internal/database"
	"github.com/TomSft15/TelloDroneHub/internal/droneservice"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	"github.com/TomSft15/TelloDroneHub/internal/telemetry"
)

// Minimal repository stubs; the hub only exercises drone reads and the
// telemetry store.

type stubTx struct{}

func (t *stubTx) Commit() error   { return nil }
func (t *stubTx) Rollback() error { return nil }
func (t *stubTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type stubDroneRepo struct {
	drones map[string]*models.Drone
}

func (r *stubDroneRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return &stubTx{}, nil
}

func (r *stubDroneRepo) Create(ctx context.Context, drone *models.Drone) error {
	r.drones[drone.ID] = drone
	return nil
}

func (r *stubDroneRepo) Get(ctx context.Context, id string) (*models.Drone, error) {
	drone, ok := r.drones[id]
	if !ok {
		return nil, errors.NewNotFoundError("drone not found", nil)
	}
	c := *drone
	return &c, nil
}

func (r *stubDroneRepo) Update(ctx context.Context, drone *models.Drone) error { return nil }
func (r *stubDroneRepo) Delete(ctx context.Context, id string) error           { return nil }
func (r *stubDroneRepo) List(ctx context.Context, offset, limit int) ([]*models.Drone, error) {
	return nil, nil
}
func (r *stubDroneRepo) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*models.Drone, error) {
	return nil, nil
}
func (r *stubDroneRepo) UpdateStatus(ctx context.Context, id, status string, lastConnection time.Time) error {
	return nil
}
func (r *stubDroneRepo) UpdateBattery(ctx context.Context, id string, batteryLevel int) error {
	return nil
}
func (r *stubDroneRepo) UpdateKeyBindings(ctx context.Context, id string, bindings models.KeyBindings) error {
	return nil
}

type stubFlightLogRepo struct{}

func (r *stubFlightLogRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return &stubTx{}, nil
}
func (r *stubFlightLogRepo) Create(ctx context.Context, log *models.FlightLog) error { return nil }
func (r *stubFlightLogRepo) Get(ctx context.Context, id string) (*models.FlightLog, error) {
	return nil, errors.NewNotFoundError("flight log not found", nil)
}
func (r *stubFlightLogRepo) Update(ctx context.Context, log *models.FlightLog) error { return nil }
func (r *stubFlightLogRepo) ListByDrone(ctx context.Context, droneID string, offset, limit int) ([]*models.FlightLog, error) {
	return nil, nil
}
func (r *stubFlightLogRepo) GetActive(ctx context.Context, droneID string) (*models.FlightLog, error) {
	return nil, errors.NewNotFoundError("no active flight", nil)
}
func (r *stubFlightLogRepo) ListCompleted(ctx context.Context, droneID string, start, end *time.Time) ([]*models.FlightLog, error) {
	return nil, nil
}
func (r *stubFlightLogRepo) DeleteByDrone(ctx context.Context, droneID string, tx database.Transaction) error {
	return nil
}

type stubMediaRepo struct{}

func (r *stubMediaRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return &stubTx{}, nil
}
func (r *stubMediaRepo) Create(ctx context.Context, media *models.Media) error { return nil }
func (r *stubMediaRepo) Get(ctx context.Context, id string) (*models.Media, error) {
	return nil, errors.NewNotFoundError("media not found", nil)
}
func (r *stubMediaRepo) Delete(ctx context.Context, id string) error { return nil }
func (r *stubMediaRepo) ListByDrone(ctx context.Context, droneID string, filters models.MediaFilters) ([]*models.Media, error) {
	return nil, nil
}
func (r *stubMediaRepo) DeleteByDrone(ctx context.Context, droneID string, tx database.Transaction) error {
	return nil
}

type stubFileRepo struct{}

func (r *stubFileRepo) Store(ctx context.Context, media *models.Media, fileData *multipart.FileHeader) error {
	return nil
}
func (r *stubFileRepo) Delete(ctx context.Context, media *models.Media) error { return nil }
func (r *stubFileRepo) StreamFile(ctx context.Context, media *models.Media, w io.Writer) error {
	return nil
}

func newTestHub() (*Hub, *droneservice.Service) {
	drones := &stubDroneRepo{drones: map[string]*models.Drone{
		"dr_1": {
			ID:           "dr_1",
			Name:         "Test Drone",
			OwnerID:      "user-1",
			Status:       models.DroneStatusFlying,
			BatteryLevel: 100,
		},
	}}
	svc := droneservice.New(drones, &stubFlightLogRepo{}, &stubMediaRepo{}, &stubFileRepo{},
		telemetry.NewStore(), droneservice.FlightConfig{
			ReturnHomeDelay: time.Hour,
			HomeLatitude:    48.8584,
			HomeLongitude:   2.2945,
		})
	svc.Telemetry.Create("dr_1", models.TelemetrySnapshot{
		Battery:     100,
		Status:      models.TelemetryStatusFlying,
		Altitude:    1.0,
		LastUpdated: time.Now(),
	})

	hub := NewHub(svc, time.Hour, []string{"*"})
	svc.SetBroadcaster(hub)
	return hub, svc
}

func ownerUser() *auth.User {
	return &auth.User{ID: "user-1", Username: "alice"}
}

func strangerUser() *auth.User {
	return &auth.User{ID: "user-2", Username: "bob"}
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case event := <-c.send:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribeSendsInitialTelemetry(t *testing.T) {
	hub, _ := newTestHub()
	client := newClient(hub, nil, ownerUser())
	ctx := auth.WithUser(context.Background(), client.user)

	if err := hub.Subscribe(ctx, client, "dr_1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := receiveEvent(t, client)
	if event.Type != EventTelemetry || event.DroneID != "dr_1" {
		t.Errorf("initial event = %+v, want telemetry for dr_1", event)
	}
	if event.Telemetry == nil || !event.Telemetry.Connected {
		t.Errorf("initial telemetry = %+v, want connected view", event.Telemetry)
	}
	if got := hub.observerCount("dr_1"); got != 1 {
		t.Errorf("observer count = %d, want 1", got)
	}
}

func TestSubscribeDeniedForStranger(t *testing.T) {
	hub, _ := newTestHub()
	client := newClient(hub, nil, strangerUser())
	ctx := auth.WithUser(context.Background(), client.user)

	err := hub.Subscribe(ctx, client, "dr_1")
	if !errors.IsAuthorization(err) {
		t.Errorf("Subscribe error = %v, want authorization error", err)
	}
	if got := hub.observerCount("dr_1"); got != 0 {
		t.Errorf("observer count = %d after denial, want 0", got)
	}
	select {
	case event := <-client.send:
		t.Errorf("unexpected event after denied subscribe: %+v", event)
	default:
	}
}

func TestCommandBroadcastReachesAllObservers(t *testing.T) {
	hub, svc := newTestHub()

	first := newClient(hub, nil, ownerUser())
	second := newClient(hub, nil, &auth.User{ID: "admin-1", Username: "root", Roles: []string{auth.RoleAdmin}})

	for _, c := range []*Client{first, second} {
		ctx := auth.WithUser(context.Background(), c.user)
		if err := hub.Subscribe(ctx, c, "dr_1"); err != nil {
			t.Fatalf("Subscribe %s: %v", c.user.Username, err)
		}
		receiveEvent(t, c) // drain the initial push
	}

	ctx := auth.WithUser(context.Background(), first.user)
	if _, err := svc.SendCommand(ctx, "dr_1", telemetry.CommandMoveUp, nil); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	got1 := receiveEvent(t, first)
	got2 := receiveEvent(t, second)

	for _, event := range []Event{got1, got2} {
		if event.Type != EventTelemetry || event.DroneID != "dr_1" {
			t.Errorf("event = %+v, want telemetry for dr_1", event)
		}
	}
	if *got1.Telemetry.Altitude != *got2.Telemetry.Altitude {
		t.Errorf("observers saw different altitudes: %v vs %v",
			*got1.Telemetry.Altitude, *got2.Telemetry.Altitude)
	}
	if *got1.Telemetry.Altitude != 1.5 {
		t.Errorf("altitude = %v, want 1.5 after moveUp", *got1.Telemetry.Altitude)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub, svc := newTestHub()
	client := newClient(hub, nil, ownerUser())
	ctx := auth.WithUser(context.Background(), client.user)

	if err := hub.Subscribe(ctx, client, "dr_1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	receiveEvent(t, client)

	hub.Unsubscribe(client, "dr_1")
	hub.Unsubscribe(client, "dr_1")
	// Never-subscribed drone is also a no-op
	hub.Unsubscribe(client, "dr_other")

	if got := hub.observerCount("dr_1"); got != 0 {
		t.Errorf("observer count = %d, want 0", got)
	}

	if _, err := svc.SendCommand(ctx, "dr_1", telemetry.CommandMoveUp, nil); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	select {
	case event := <-client.send:
		t.Errorf("received event after unsubscribe: %+v", event)
	default:
	}
}

func TestDropClientLeavesAllRooms(t *testing.T) {
	hub, _ := newTestHub()
	client := newClient(hub, nil, ownerUser())
	ctx := auth.WithUser(context.Background(), client.user)

	if err := hub.Subscribe(ctx, client, "dr_1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	hub.dropClient(client)
	if got := hub.observerCount("dr_1"); got != 0 {
		t.Errorf("observer count = %d after drop, want 0", got)
	}
}

func TestHandleMessageCommandResultGoesToActorOnly(t *testing.T) {
	hub, _ := newTestHub()

	actor := newClient(hub, nil, ownerUser())
	watcher := newClient(hub, nil, &auth.User{ID: "admin-1", Username: "root", Roles: []string{auth.RoleAdmin}})

	for _, c := range []*Client{actor, watcher} {
		ctx := auth.WithUser(context.Background(), c.user)
		if err := hub.Subscribe(ctx, c, "dr_1"); err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		receiveEvent(t, c)
	}

	actor.handleMessage(inboundMessage{Action: actionCommand, DroneID: "dr_1", Command: telemetry.CommandMoveUp})

	// Actor gets the room broadcast plus its private command result
	var sawResult bool
	for i := 0; i < 2; i++ {
		event := receiveEvent(t, actor)
		if event.Type == EventCommandResult {
			sawResult = true
			if event.Result == nil || !event.Result.Success {
				t.Errorf("command result = %+v, want success", event.Result)
			}
		}
	}
	if !sawResult {
		t.Error("actor never received a command result")
	}

	// Watcher only sees telemetry
	event := receiveEvent(t, watcher)
	if event.Type != EventTelemetry {
		t.Errorf("watcher event = %+v, want telemetry", event)
	}
	select {
	case extra := <-watcher.send:
		if extra.Type == EventCommandResult {
			t.Error("command result leaked to a non-acting observer")
		}
	default:
	}
}

func TestHandleMessageUnknownAction(t *testing.T) {
	hub, _ := newTestHub()
	client := newClient(hub, nil, ownerUser())

	client.handleMessage(inboundMessage{Action: "dance", DroneID: "dr_1"})

	event := receiveEvent(t, client)
	if event.Type != EventError || event.Error == nil {
		t.Errorf("event = %+v, want an error push", event)
	}
}

func TestTickTelemetrySkipsOfflineDrones(t *testing.T) {
	hub, svc := newTestHub()
	client := newClient(hub, nil, ownerUser())
	ctx := auth.WithUser(context.Background(), client.user)

	if err := hub.Subscribe(ctx, client, "dr_1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	receiveEvent(t, client)

	hub.tickTelemetry(client)
	event := receiveEvent(t, client)
	if event.Type != EventTelemetry || !event.Telemetry.Connected {
		t.Errorf("tick event = %+v, want live telemetry", event)
	}

	// Once the session is gone the tick produces nothing
	svc.Telemetry.Delete("dr_1")
	hub.tickTelemetry(client)
	select {
	case extra := <-client.send:
		t.Errorf("tick pushed for offline drone: %+v", extra)
	default:
	}
}

func TestTickAfterDisconnectPushesNothing(t *testing.T) {
	hub, svc := newTestHub()
	client := newClient(hub, nil, ownerUser())
	ctx := auth.WithUser(context.Background(), client.user)

	if err := hub.Subscribe(ctx, client, "dr_1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	receiveEvent(t, client)

	// The teardown order the read loop runs when the connection closes
	hub.dropClient(client)
	close(client.done)

	if got := client.subscriptionList(); len(got) != 0 {
		t.Errorf("subscriptions after disconnect = %v, want none", got)
	}

	// A telemetry tick racing the disconnect must deliver nothing
	hub.tickTelemetry(client)
	select {
	case event := <-client.send:
		t.Errorf("tick delivered event after disconnect: %+v", event)
	default:
	}

	// Neither may a room broadcast triggered by another actor
	adminCtx := auth.WithUser(context.Background(),
		&auth.User{ID: "admin-1", Username: "root", Roles: []string{auth.RoleAdmin}})
	if _, err := svc.SendCommand(adminCtx, "dr_1", telemetry.CommandMoveUp, nil); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	select {
	case event := <-client.send:
		t.Errorf("broadcast delivered event after disconnect: %+v", event)
	default:
	}

	// A straggling push is dropped or buffered, never a panic
	client.push(Event{Type: EventTelemetry, DroneID: "dr_1"})
}

func TestUpgradeHonorsAllowedOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"listed origin", []string{"https://app.example.com"}, "https://app.example.com", true},
		{"case-insensitive match", []string{"https://app.example.com"}, "HTTPS://APP.EXAMPLE.COM", true},
		{"unlisted origin", []string{"https://app.example.com"}, "https://evil.example.com", false},
		{"wildcard", []string{"*"}, "https://anywhere.example.com", true},
		{"non-browser client without origin", []string{"https://app.example.com"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpgrader(tt.allowed)
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := up.CheckOrigin(req); got != tt.want {
				t.Errorf("CheckOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
