package droneservice

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/auth"
	"github.com/TomSft15/TelloDroneHub/internal/database"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	"github.com/TomSft15/TelloDroneHub/internal/repository"
	"github.com/TomSft15/TelloDroneHub/internal/telemetry"
)

// In-memory repository fakes. They mimic the behavior the postgres layer
// guarantees: copies on read, not-found errors with the shared sentinel.

type fakeTx struct{}

func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }
func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type fakeDroneRepo struct {
	mu     sync.Mutex
	drones map[string]*models.Drone
}

func newFakeDroneRepo() *fakeDroneRepo {
	return &fakeDroneRepo{drones: make(map[string]*models.Drone)}
}

func cloneDrone(d *models.Drone) *models.Drone {
	c := *d
	return &c
}

func (r *fakeDroneRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return &fakeTx{}, nil
}

func (r *fakeDroneRepo) Create(ctx context.Context, drone *models.Drone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drones[drone.ID]; ok {
		return errors.NewDatabaseError("drone already exists", repository.ErrDuplicate)
	}
	r.drones[drone.ID] = cloneDrone(drone)
	return nil
}

func (r *fakeDroneRepo) Get(ctx context.Context, id string) (*models.Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drone, ok := r.drones[id]
	if !ok {
		return nil, errors.NewNotFoundError("drone not found", repository.ErrNotFound)
	}
	return cloneDrone(drone), nil
}

func (r *fakeDroneRepo) Update(ctx context.Context, drone *models.Drone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drones[drone.ID]; !ok {
		return errors.NewNotFoundError("drone not found", repository.ErrNotFound)
	}
	r.drones[drone.ID] = cloneDrone(drone)
	return nil
}

func (r *fakeDroneRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drones[id]; !ok {
		return errors.NewNotFoundError("drone not found", repository.ErrNotFound)
	}
	delete(r.drones, id)
	return nil
}

func (r *fakeDroneRepo) List(ctx context.Context, offset, limit int) ([]*models.Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.Drone, 0, len(r.drones))
	for _, d := range r.drones {
		all = append(all, cloneDrone(d))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, offset, limit), nil
}

func (r *fakeDroneRepo) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*models.Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var owned []*models.Drone
	for _, d := range r.drones {
		if d.OwnerID == ownerID {
			owned = append(owned, cloneDrone(d))
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return paginate(owned, offset, limit), nil
}

func (r *fakeDroneRepo) UpdateStatus(ctx context.Context, id, status string, lastConnection time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	drone, ok := r.drones[id]
	if !ok {
		return errors.NewNotFoundError("drone not found", repository.ErrNotFound)
	}
	drone.Status = status
	lc := lastConnection
	drone.LastConnection = &lc
	return nil
}

func (r *fakeDroneRepo) UpdateBattery(ctx context.Context, id string, batteryLevel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	drone, ok := r.drones[id]
	if !ok {
		return errors.NewNotFoundError("drone not found", repository.ErrNotFound)
	}
	drone.BatteryLevel = batteryLevel
	return nil
}

func (r *fakeDroneRepo) UpdateKeyBindings(ctx context.Context, id string, bindings models.KeyBindings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	drone, ok := r.drones[id]
	if !ok {
		return errors.NewNotFoundError("drone not found", repository.ErrNotFound)
	}
	drone.KeyBindings = bindings
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type fakeFlightLogRepo struct {
	mu   sync.Mutex
	logs []*models.FlightLog
}

func newFakeFlightLogRepo() *fakeFlightLogRepo {
	return &fakeFlightLogRepo{}
}

func cloneFlightLog(l *models.FlightLog) *models.FlightLog {
	c := *l
	c.Path = append(models.FlightPath{}, l.Path...)
	return &c
}

func (r *fakeFlightLogRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return &fakeTx{}, nil
}

func (r *fakeFlightLogRepo) Create(ctx context.Context, log *models.FlightLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, cloneFlightLog(log))
	return nil
}

func (r *fakeFlightLogRepo) Get(ctx context.Context, id string) (*models.FlightLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.ID == id {
			return cloneFlightLog(l), nil
		}
	}
	return nil, errors.NewNotFoundError("flight log not found", repository.ErrNotFound)
}

func (r *fakeFlightLogRepo) Update(ctx context.Context, log *models.FlightLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.logs {
		if l.ID == log.ID {
			r.logs[i] = cloneFlightLog(log)
			return nil
		}
	}
	return errors.NewNotFoundError("flight log not found", repository.ErrNotFound)
}

func (r *fakeFlightLogRepo) ListByDrone(ctx context.Context, droneID string, offset, limit int) ([]*models.FlightLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var logs []*models.FlightLog
	// Newest first
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].DroneID == droneID {
			logs = append(logs, cloneFlightLog(r.logs[i]))
		}
	}
	return paginate(logs, offset, limit), nil
}

func (r *fakeFlightLogRepo) GetActive(ctx context.Context, droneID string) (*models.FlightLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].DroneID == droneID && r.logs[i].EndTime == nil {
			return cloneFlightLog(r.logs[i]), nil
		}
	}
	return nil, errors.NewNotFoundError("no active flight", repository.ErrNotFound)
}

func (r *fakeFlightLogRepo) ListCompleted(ctx context.Context, droneID string, start, end *time.Time) ([]*models.FlightLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var logs []*models.FlightLog
	for _, l := range r.logs {
		if l.DroneID != droneID || l.EndTime == nil {
			continue
		}
		if start != nil && l.StartTime.Before(*start) {
			continue
		}
		if end != nil && l.StartTime.After(*end) {
			continue
		}
		logs = append(logs, cloneFlightLog(l))
	}
	return logs, nil
}

func (r *fakeFlightLogRepo) DeleteByDrone(ctx context.Context, droneID string, tx database.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*models.FlightLog
	for _, l := range r.logs {
		if l.DroneID != droneID {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return nil
}

// activeCount reports how many active flight logs a drone has
func (r *fakeFlightLogRepo) activeCount(droneID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.logs {
		if l.DroneID == droneID && l.EndTime == nil {
			n++
		}
	}
	return n
}

type fakeMediaRepo struct {
	mu    sync.Mutex
	items map[string]*models.Media
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{items: make(map[string]*models.Media)}
}

func (r *fakeMediaRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return &fakeTx{}, nil
}

func (r *fakeMediaRepo) Create(ctx context.Context, media *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *media
	r.items[media.ID] = &c
	return nil
}

func (r *fakeMediaRepo) Get(ctx context.Context, id string) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, errors.NewNotFoundError("media not found", repository.ErrNotFound)
	}
	c := *m
	return &c, nil
}

func (r *fakeMediaRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errors.NewNotFoundError("media not found", repository.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMediaRepo) ListByDrone(ctx context.Context, droneID string, filters models.MediaFilters) ([]*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Media
	for _, m := range r.items {
		if m.DroneID != droneID {
			continue
		}
		if filters.Type != "" && m.Type != filters.Type {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMediaRepo) DeleteByDrone(ctx context.Context, droneID string, tx database.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.items {
		if m.DroneID == droneID {
			delete(r.items, id)
		}
	}
	return nil
}

type fakeFileRepo struct {
	mu      sync.Mutex
	stored  map[string][]byte
	deleted []string
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{stored: make(map[string][]byte)}
}

func (r *fakeFileRepo) Store(ctx context.Context, media *models.Media, fileData *multipart.FileHeader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	media.FilePath = "fake/" + media.ID
	r.stored[media.ID] = []byte("file-content")
	return nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, media *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stored, media.ID)
	r.deleted = append(r.deleted, media.ID)
	return nil
}

func (r *fakeFileRepo) StreamFile(ctx context.Context, media *models.Media, w io.Writer) error {
	r.mu.Lock()
	content, ok := r.stored[media.ID]
	r.mu.Unlock()
	if !ok {
		return errors.NewNotFoundError("file not found", repository.ErrNotFound)
	}
	_, err := w.Write(content)
	return err
}

// captureBroadcaster records telemetry fan-out calls
type captureBroadcaster struct {
	mu     sync.Mutex
	pushes []capturedPush
}

type capturedPush struct {
	droneID string
	view    *models.TelemetryView
}

func (b *captureBroadcaster) BroadcastTelemetry(droneID string, view *models.TelemetryView) {
	b.mu.Lock()
	b.pushes = append(b.pushes, capturedPush{droneID: droneID, view: view})
	b.mu.Unlock()
}

func (b *captureBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pushes)
}

func (b *captureBroadcaster) last() (capturedPush, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pushes) == 0 {
		return capturedPush{}, false
	}
	return b.pushes[len(b.pushes)-1], true
}

// Test fixture wiring

type fixtures struct {
	drones  *fakeDroneRepo
	logs    *fakeFlightLogRepo
	media   *fakeMediaRepo
	files   *fakeFileRepo
	pushed  *captureBroadcaster
	service *Service
}

func newTestService() *fixtures {
	f := &fixtures{
		drones: newFakeDroneRepo(),
		logs:   newFakeFlightLogRepo(),
		media:  newFakeMediaRepo(),
		files:  newFakeFileRepo(),
		pushed: &captureBroadcaster{},
	}
	f.service = New(f.drones, f.logs, f.media, f.files, telemetry.NewStore(), FlightConfig{
		ReturnHomeDelay: 20 * time.Millisecond,
		HomeLatitude:    48.8584,
		HomeLongitude:   2.2945,
	})
	f.service.SetBroadcaster(f.pushed)
	return f
}

func (f *fixtures) seedDrone(id, ownerID string) *models.Drone {
	now := time.Now()
	drone := &models.Drone{
		ID:           id,
		Name:         "Test Drone",
		Model:        "Tello",
		SerialNumber: "SN-" + id,
		OwnerID:      ownerID,
		Status:       models.DroneStatusInactive,
		BatteryLevel: 100,
		Firmware:     "1.0.0",
		KeyBindings:  models.DefaultKeyBindings(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.drones.Create(context.Background(), drone)
	return drone
}

func ownerCtx() context.Context {
	return auth.WithUser(context.Background(), &auth.User{ID: "user-1", Username: "alice"})
}

func strangerCtx() context.Context {
	return auth.WithUser(context.Background(), &auth.User{ID: "user-2", Username: "bob"})
}

func adminCtx() context.Context {
	return auth.WithUser(context.Background(), &auth.User{
		ID: "admin-1", Username: "root", Roles: []string{auth.RoleAdmin},
	})
}
