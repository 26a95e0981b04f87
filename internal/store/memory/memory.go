// Package memory provides the map-backed room store.
package memory

import (
	"sort"

	"github.com/example/availability-scheduler/internal/store"
)

// Store keeps rooms in a map. It is not synchronised; callers serialise access.
type Store struct {
	rooms map[string]*store.Room
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{rooms: make(map[string]*store.Room)}
}

// Get returns the room with the given code.
func (s *Store) Get(code string) (*store.Room, bool) {
	room, ok := s.rooms[code]
	return room, ok
}

// Put inserts or replaces a room.
func (s *Store) Put(room *store.Room) {
	if room == nil {
		return
	}
	s.rooms[room.Code] = room
}

// Delete removes a room.
func (s *Store) Delete(code string) {
	delete(s.rooms, code)
}

// Has reports whether a room exists.
func (s *Store) Has(code string) bool {
	_, ok := s.rooms[code]
	return ok
}

// Codes lists room codes in ascending order.
func (s *Store) Codes() []string {
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of rooms.
func (s *Store) Len() int {
	return len(s.rooms)
}

// Range visits rooms in code order. Deleting the visited room inside fn is allowed.
func (s *Store) Range(fn func(room *store.Room) bool) {
	for _, code := range s.Codes() {
		room, ok := s.rooms[code]
		if !ok {
			continue
		}
		if !fn(room) {
			return
		}
	}
}
