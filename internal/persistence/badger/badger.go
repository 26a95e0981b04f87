// Package badger persists room snapshots in an embedded Badger key-value store.
//
// Keys are "room:<code>" and values are JSON snapshots. Each entry carries
// the room's expiry as its TTL so Badger drops dead rooms on its own.
package badger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/example/availability-scheduler/internal/persistence"
)

const keyPrefix = "room:"

func roomKey(code string) []byte {
	return []byte(keyPrefix + code)
}

// Store is a SnapshotStore backed by Badger.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the database directory at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(path).WithLogger(slogAdapter{logger: logger.With("component", "badger")})
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		opts = opts.WithLoggingLevel(badger.DEBUG)
	} else {
		opts = opts.WithLoggingLevel(badger.WARNING)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return New(db, logger), nil
}

// New wraps an open database.
func New(db *badger.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("backend", "badger"), now: time.Now}
}

// Name implements persistence.SnapshotStore.
func (s *Store) Name() string { return "badger" }

// Load returns every room that has not expired at now.
func (s *Store) Load(ctx context.Context, now time.Time) ([]persistence.RoomSnapshot, error) {
	var out []persistence.RoomSnapshot
	prefix := []byte(keyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			code := strings.TrimPrefix(string(item.Key()), keyPrefix)
			err := item.Value(func(v []byte) error {
				snapshot, err := persistence.DecodeSnapshot(v)
				if err != nil {
					s.logger.WarnContext(ctx, "skipping unreadable room entry", "room_code", code, "error", err)
					return nil
				}
				if !snapshot.Expired(now) {
					out = append(out, snapshot)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return out, nil
}

// Upsert writes the snapshot with a TTL ending at its expiry. A snapshot
// that has already expired is deleted instead.
func (s *Store) Upsert(_ context.Context, snapshot persistence.RoomSnapshot) error {
	if snapshot.Expired(s.now()) {
		return s.Delete(context.Background(), snapshot.Code)
	}
	data, err := persistence.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	entry := badger.NewEntry(roomKey(snapshot.Code), data)
	if !snapshot.ExpiresAt.IsZero() {
		entry.ExpiresAt = uint64(snapshot.ExpiresAt.Unix())
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return fmt.Errorf("upsert room %s: %w", snapshot.Code, err)
	}
	return nil
}

// Delete removes the entry for code. Missing entries are not an error.
func (s *Store) Delete(_ context.Context, code string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(roomKey(code))
	}); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// slogAdapter routes Badger's printf-style logging into slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (a slogAdapter) Warningf(format string, args ...any) {
	a.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (a slogAdapter) Infof(format string, args ...any) {
	a.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
