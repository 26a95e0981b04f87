// Package mongo persists room snapshots in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/availability-scheduler/internal/persistence"
)

const collectionName = "rooms"

// Config holds MongoDB connection settings.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// DefaultConfig returns settings for uri and database.
func DefaultConfig(uri, database string) Config {
	return Config{
		URI:            uri,
		Database:       database,
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    20,
	}
}

// roomDocument is the stored form. The snapshot itself is kept as JSON so
// every backend shares one codec.
type roomDocument struct {
	Code      string     `bson:"_id"`
	Doc       string     `bson:"doc"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func toDocument(snapshot persistence.RoomSnapshot) (roomDocument, error) {
	data, err := persistence.EncodeSnapshot(snapshot)
	if err != nil {
		return roomDocument{}, err
	}
	doc := roomDocument{Code: snapshot.Code, Doc: string(data), UpdatedAt: snapshot.UpdatedAt.UTC()}
	if !snapshot.ExpiresAt.IsZero() {
		expires := snapshot.ExpiresAt.UTC()
		doc.ExpiresAt = &expires
	}
	return doc, nil
}

func (d roomDocument) snapshot() (persistence.RoomSnapshot, error) {
	return persistence.DecodeSnapshot([]byte(d.Doc))
}

// loadFilter matches rooms without an expiry or expiring after now.
func loadFilter(now time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$exists": false}},
		bson.M{"expires_at": bson.M{"$gt": now.UTC()}},
	}}
}

// Store is a SnapshotStore backed by MongoDB.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// Open connects, pings and ensures the expiry index.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New("mongo: uri and database are required")
	}
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(collectionName),
		logger:     logger.With("backend", "mongo"),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("idx_rooms_expires_at"),
	})
	if err != nil {
		return fmt.Errorf("create expiry index: %w", err)
	}
	return nil
}

// Name implements persistence.SnapshotStore.
func (s *Store) Name() string { return "mongo" }

// Load returns every room that has not expired at now.
func (s *Store) Load(ctx context.Context, now time.Time) ([]persistence.RoomSnapshot, error) {
	cursor, err := s.collection.Find(ctx, loadFilter(now), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var out []persistence.RoomSnapshot
	for cursor.Next(ctx) {
		var doc roomDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode room document: %w", err)
		}
		snapshot, err := doc.snapshot()
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable room document", "room_code", doc.Code, "error", err)
			continue
		}
		out = append(out, snapshot)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return out, nil
}

// Upsert replaces the document for the snapshot's code.
func (s *Store) Upsert(ctx context.Context, snapshot persistence.RoomSnapshot) error {
	doc, err := toDocument(snapshot)
	if err != nil {
		return err
	}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": doc.Code}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert room %s: %w", snapshot.Code, err)
	}
	return nil
}

// Delete removes the document for code. Missing documents are not an error.
func (s *Store) Delete(ctx context.Context, code string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": code}); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
