//go:generate go run go.uber.org/mock/mockgen -source=repositories.go -destination=mocks/mock_store.go -package=mocks

package persistence

import (
	"context"
	"time"
)

// SnapshotStore persists whole-room snapshots. Exactly one backend is active
// per process; snapshots are opaque documents keyed by room code.
type SnapshotStore interface {
	// Name identifies the backend in logs and health output.
	Name() string
	// Load returns every stored snapshot whose expiry is after now.
	Load(ctx context.Context, now time.Time) ([]RoomSnapshot, error)
	// Upsert writes the snapshot, replacing any previous one for the same code.
	Upsert(ctx context.Context, snapshot RoomSnapshot) error
	// Delete removes the snapshot for code. Deleting a missing code is not an error.
	Delete(ctx context.Context, code string) error
	Close() error
}
