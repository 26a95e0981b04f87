// Package backend opens the snapshot store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/persistence/badger"
	"github.com/example/availability-scheduler/internal/persistence/file"
	"github.com/example/availability-scheduler/internal/persistence/mongo"
	"github.com/example/availability-scheduler/internal/persistence/postgres"
	"github.com/example/availability-scheduler/internal/persistence/sqlite"
)

// Backend names accepted by Open.
const (
	None     = "none"
	File     = "file"
	SQLite   = "sqlite"
	Postgres = "postgres"
	Mongo    = "mongo"
	Badger   = "badger"
)

// Names lists every supported backend.
var Names = []string{None, File, SQLite, Postgres, Mongo, Badger}

// Settings carries the location of each backend. Only the field of the
// selected backend is read.
type Settings struct {
	Backend       string
	SnapshotPath  string
	SQLiteDSN     string
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string
	BadgerPath    string
}

// Open constructs the configured store.
func Open(ctx context.Context, settings Settings, logger *slog.Logger) (persistence.SnapshotStore, error) {
	switch settings.Backend {
	case None, "":
		return persistence.NewMemoryStore(), nil
	case File:
		return file.New(settings.SnapshotPath), nil
	case SQLite:
		return wrap(sqlite.Open(ctx, sqlite.DefaultConfig(settings.SQLiteDSN), logger))
	case Postgres:
		return wrap(postgres.Open(ctx, settings.PostgresDSN, logger))
	case Mongo:
		return wrap(mongo.Open(ctx, mongo.DefaultConfig(settings.MongoURI, settings.MongoDatabase), logger))
	case Badger:
		return wrap(badger.Open(settings.BadgerPath, logger))
	default:
		return nil, fmt.Errorf("unknown store backend %q", settings.Backend)
	}
}

// wrap keeps a failed constructor from returning a typed nil store.
func wrap[S persistence.SnapshotStore](store S, err error) (persistence.SnapshotStore, error) {
	if err != nil {
		return nil, err
	}
	return store, nil
}
