// Package sqlite persists room snapshots in a SQLite database.
//
// Each room is one row holding its JSON snapshot. The expiry is kept in its
// own indexed column so loads can skip dead rooms without decoding them.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/example/availability-scheduler/internal/persistence"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a SnapshotStore backed by SQLite.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
	retry  RetryConfig
	logger *slog.Logger
}

// Open connects to the database described by cfg and applies migrations.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, retry: DefaultRetryConfig(), logger: logger.With("backend", "sqlite")}, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// Name implements persistence.SnapshotStore.
func (s *Store) Name() string { return "sqlite" }

// Load returns every room that has not expired at now.
func (s *Store) Load(ctx context.Context, now time.Time) ([]persistence.RoomSnapshot, error) {
	if s.closed.Load() {
		return nil, persistence.ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, doc FROM rooms WHERE expires_at = 0 OR expires_at > ? ORDER BY code`,
		now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", mapError(err))
	}
	defer rows.Close()

	var out []persistence.RoomSnapshot
	for rows.Next() {
		var code, doc string
		if err := rows.Scan(&code, &doc); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		snapshot, err := persistence.DecodeSnapshot([]byte(doc))
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable room row", "room_code", code, "error", err)
			continue
		}
		out = append(out, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return out, nil
}

// Upsert writes the snapshot, replacing any previous row for the code.
func (s *Store) Upsert(ctx context.Context, snapshot persistence.RoomSnapshot) error {
	if s.closed.Load() {
		return persistence.ErrClosed
	}
	doc, err := persistence.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	expires := int64(0)
	if !snapshot.ExpiresAt.IsZero() {
		expires = snapshot.ExpiresAt.UnixMilli()
	}

	return withRetry(ctx, s.retry, func() error {
		return withTransaction(ctx, s.db, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO rooms (code, doc, expires_at, updated_at) VALUES (?, ?, ?, ?)
				 ON CONFLICT(code) DO UPDATE SET doc = excluded.doc, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
				snapshot.Code, string(doc), expires, snapshot.UpdatedAt.UnixMilli(),
			)
			return err
		})
	})
}

// Delete removes the row for code. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, code string) error {
	if s.closed.Load() {
		return persistence.ErrClosed
	}
	return withRetry(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code)
		return err
	})
}

// Close releases the database handle. The handle itself is kept, so a write
// racing with Close fails with an error rather than a nil dereference.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return persistence.ErrClosed
	}
	return s.db.Close()
}
