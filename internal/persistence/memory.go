package persistence

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory. It backs tests and the
// "none" backend.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]RoomSnapshot
}

var _ SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]RoomSnapshot)}
}

// Name implements SnapshotStore.
func (s *MemoryStore) Name() string { return "memory" }

// Load implements SnapshotStore.
func (s *MemoryStore) Load(_ context.Context, now time.Time) ([]RoomSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RoomSnapshot, 0, len(s.rooms))
	for _, snapshot := range s.rooms {
		if snapshot.Expired(now) {
			continue
		}
		out = append(out, snapshot.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Upsert implements SnapshotStore.
func (s *MemoryStore) Upsert(_ context.Context, snapshot RoomSnapshot) error {
	s.mu.Lock()
	s.rooms[snapshot.Code] = snapshot.Clone()
	s.mu.Unlock()
	return nil
}

// Delete implements SnapshotStore.
func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	delete(s.rooms, code)
	s.mu.Unlock()
	return nil
}

// Get returns the stored snapshot for code.
func (s *MemoryStore) Get(code string) (RoomSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.rooms[code]
	if !ok {
		return RoomSnapshot{}, ErrNotFound
	}
	return snapshot.Clone(), nil
}

// Close implements SnapshotStore.
func (s *MemoryStore) Close() error { return nil }
