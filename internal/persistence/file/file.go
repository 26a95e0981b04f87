// Package file persists every room in one JSON document on local disk.
//
// Each write renders the whole state to a temporary file in the same
// directory and renames it over the previous document, so readers never see
// a partial write.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/example/availability-scheduler/internal/persistence"
)

// Store is a SnapshotStore writing one JSON document.
type Store struct {
	mu     sync.Mutex
	path   string
	rooms  map[string]persistence.RoomSnapshot
	now    func() time.Time
	closed bool
}

// New returns a store for the document at path. Nothing is read until Load.
func New(path string) *Store {
	return &Store{path: path, rooms: make(map[string]persistence.RoomSnapshot), now: time.Now}
}

// Name implements persistence.SnapshotStore.
func (s *Store) Name() string { return "file" }

// Load reads the document. A missing file is an empty state.
func (s *Store) Load(_ context.Context, now time.Time) ([]persistence.RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, persistence.ErrClosed
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	rooms, err := persistence.DecodeState(data)
	if err != nil {
		return nil, err
	}

	s.rooms = make(map[string]persistence.RoomSnapshot, len(rooms))
	out := make([]persistence.RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		if room.Expired(now) {
			continue
		}
		s.rooms[room.Code] = room.Clone()
		out = append(out, room)
	}
	return out, nil
}

// Upsert replaces the snapshot for its code and rewrites the document.
func (s *Store) Upsert(_ context.Context, snapshot persistence.RoomSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}
	previous, existed := s.rooms[snapshot.Code]
	s.rooms[snapshot.Code] = snapshot.Clone()
	if err := s.writeLocked(); err != nil {
		if existed {
			s.rooms[snapshot.Code] = previous
		} else {
			delete(s.rooms, snapshot.Code)
		}
		return err
	}
	return nil
}

// Delete drops the snapshot for code and rewrites the document.
func (s *Store) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}
	previous, existed := s.rooms[code]
	if !existed {
		return nil
	}
	delete(s.rooms, code)
	if err := s.writeLocked(); err != nil {
		s.rooms[code] = previous
		return err
	}
	return nil
}

// Close stops further writes.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) writeLocked() error {
	data, err := persistence.EncodeState(lo.Values(s.rooms), s.now().UTC())
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}
