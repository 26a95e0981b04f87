// Package postgres persists room snapshots in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/example/availability-scheduler/internal/persistence"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseUpContext is a seam for testing migrations without a server.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

const (
	loadQuery = `SELECT code, doc FROM rooms WHERE expires_at IS NULL OR expires_at > $1 ORDER BY code`

	upsertQuery = `INSERT INTO rooms (code, doc, expires_at, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (code) DO UPDATE SET doc = EXCLUDED.doc, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`

	deleteQuery = `DELETE FROM rooms WHERE code = $1`
)

// Store is a SnapshotStore backed by PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects with dsn, verifies the connection and applies migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db, logger), nil
}

// New wraps an existing handle. The schema must already exist.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("backend", "postgres")}
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// Name implements persistence.SnapshotStore.
func (s *Store) Name() string { return "postgres" }

// Load returns every room that has not expired at now.
func (s *Store) Load(ctx context.Context, now time.Time) ([]persistence.RoomSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, loadQuery, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var out []persistence.RoomSnapshot
	for rows.Next() {
		var (
			code string
			doc  []byte
		)
		if err := rows.Scan(&code, &doc); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		snapshot, err := persistence.DecodeSnapshot(doc)
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
	doc, err := persistence.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	var expires sql.NullTime
	if !snapshot.ExpiresAt.IsZero() {
		expires = sql.NullTime{Time: snapshot.ExpiresAt.UTC(), Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, snapshot.Code, doc, expires, snapshot.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("upsert room %s: %w", snapshot.Code, err)
	}
	return nil
}

// Delete removes the row for code. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, code string) error {
	if _, err := s.db.ExecContext(ctx, deleteQuery, code); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
