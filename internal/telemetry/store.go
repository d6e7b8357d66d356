// FilePath: internal/telemetry/store.go
package telemetry

import (
	"sync"

	"github.com/TomSft15/TelloDroneHub/internal/models"
)

// Store is the process-wide registry of live telemetry snapshots, keyed by
// drone id. Entries exist strictly between flight start and flight end.
// Access is serialized per drone id: the registry map is guarded by a
// read-write mutex and each entry carries its own lock, so mutations for one
// drone never block readers of another.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	snap models.TelemetrySnapshot
	gone bool
}

// NewStore creates an empty telemetry store
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Create installs a snapshot for the drone, replacing any previous one
func (s *Store) Create(droneID string, snap models.TelemetrySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[droneID] = &entry{snap: snap}
}

// Delete removes the drone's snapshot. Pending timers holding the old entry
// observe the tombstone and become no-ops. Returns false if no session existed.
func (s *Store) Delete(droneID string) bool {
	s.mu.Lock()
	e, ok := s.entries[droneID]
	delete(s.entries, droneID)
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.mu.Lock()
	e.gone = true
	e.mu.Unlock()
	return true
}

// Get returns a copy of the drone's snapshot
func (s *Store) Get(droneID string) (models.TelemetrySnapshot, bool) {
	s.mu.RLock()
	e, ok := s.entries[droneID]
	s.mu.RUnlock()

	if !ok {
		return models.TelemetrySnapshot{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return models.TelemetrySnapshot{}, false
	}
	return e.snap, true
}

// Update runs fn on the drone's snapshot under the entry lock and returns the
// resulting copy. Returns false without calling fn when the session is gone.
func (s *Store) Update(droneID string, fn func(*models.TelemetrySnapshot)) (models.TelemetrySnapshot, bool) {
	s.mu.RLock()
	e, ok := s.entries[droneID]
	s.mu.RUnlock()

	if !ok {
		return models.TelemetrySnapshot{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return models.TelemetrySnapshot{}, false
	}
	fn(&e.snap)
	return e.snap, true
}

// Connected reports whether a live session exists for the drone
func (s *Store) Connected(droneID string) bool {
	_, ok := s.Get(droneID)
	return ok
}
