package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/example/availability-scheduler/internal/persistence"
)

func TestDocumentRoundTrip(t *testing.T) {
	expires := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	doc, err := toDocument(persistence.RoomSnapshot{Code: "123456", StartDate: "2025-01-10", EndDate: "2025-01-10", ExpiresAt: expires})
	require.NoError(t, err)
	assert.Equal(t, "123456", doc.Code)
	require.NotNil(t, doc.ExpiresAt)
	assert.True(t, doc.ExpiresAt.Equal(expires))

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded roomDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	snapshot, err := decoded.snapshot()
	require.NoError(t, err)
	assert.Equal(t, "123456", snapshot.Code)
	assert.Equal(t, 30, snapshot.SlotMinutes)

	noExpiry, err := toDocument(persistence.RoomSnapshot{Code: "654321"})
	require.NoError(t, err)
	assert.Nil(t, noExpiry.ExpiresAt)
}

func TestLoadFilter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := loadFilter(now)
	clauses, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, clauses, 2)
}

func TestStore_AgainstServer(t *testing.T) {
	uri := os.Getenv("SCHEDULER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SCHEDULER_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, DefaultConfig(uri, "scheduler_test_"+uuid.NewString()[:8]), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.collection.Database().Drop(context.Background())
		_ = store.Close()
	})

	now := time.Now().UTC()
	require.NoError(t, store.Upsert(ctx, persistence.RoomSnapshot{Code: "111111", StartDate: "2025-01-10", EndDate: "2025-01-10", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Upsert(ctx, persistence.RoomSnapshot{Code: "222222", StartDate: "2025-01-10", EndDate: "2025-01-10", ExpiresAt: now.Add(-time.Hour)}))

	loaded, err := store.Load(ctx, now)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "111111", loaded[0].Code)

	require.NoError(t, store.Delete(ctx, "111111"))
	loaded, err = store.Load(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
