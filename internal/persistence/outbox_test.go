package persistence_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/persistence/mocks"
)

type fakeSource struct {
	mu    sync.Mutex
	rooms map[string]persistence.RoomSnapshot
}

func newFakeSource(codes ...string) *fakeSource {
	src := &fakeSource{rooms: make(map[string]persistence.RoomSnapshot)}
	for _, code := range codes {
		src.rooms[code] = persistence.RoomSnapshot{Code: code, Title: "room " + code}
	}
	return src
}

func (f *fakeSource) Snapshot(code string) (persistence.RoomSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.rooms[code]
	return snapshot, ok
}

func newMockStore(t *testing.T) *mocks.MockSnapshotStore {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	store.EXPECT().Name().Return("mock").AnyTimes()
	return store
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbox write")
		return ""
	}
}

func TestOutbox_DebounceCoalescesMarks(t *testing.T) {
	store := newMockStore(t)
	written := make(chan string, 4)
	store.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snapshot persistence.RoomSnapshot) error {
			written <- snapshot.Code
			return nil
		}).Times(1)

	outbox := persistence.NewOutbox(store, newFakeSource("111111"), 20*time.Millisecond, nil)
	defer outbox.Close()

	for i := 0; i < 5; i++ {
		outbox.MarkDirty("111111")
	}

	assert.Equal(t, "111111", waitFor(t, written))
	assert.Eventually(t, func() bool { return outbox.Pending() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, outbox.Flush(context.Background()))
}

func TestOutbox_DeleteSupersedesDirty(t *testing.T) {
	store := newMockStore(t)
	deleted := make(chan string, 1)
	store.EXPECT().Delete(gomock.Any(), "222222").
		DoAndReturn(func(_ context.Context, code string) error {
			deleted <- code
			return nil
		}).Times(1)

	outbox := persistence.NewOutbox(store, newFakeSource("222222"), 20*time.Millisecond, nil)
	defer outbox.Close()

	outbox.MarkDirty("222222")
	outbox.MarkDeleted("222222")

	assert.Equal(t, "222222", waitFor(t, deleted))
}

func TestOutbox_FailedWritesAreRetried(t *testing.T) {
	store := newMockStore(t)
	attempts := make(chan string, 4)
	gomock.InOrder(
		store.EXPECT().Upsert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, snapshot persistence.RoomSnapshot) error {
				attempts <- "fail"
				return errors.New("disk full")
			}),
		store.EXPECT().Upsert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, snapshot persistence.RoomSnapshot) error {
				attempts <- "ok"
				return nil
			}),
	)

	outbox := persistence.NewOutbox(store, newFakeSource("333333"), 10*time.Millisecond, nil)
	defer outbox.Close()

	outbox.MarkDirty("333333")

	assert.Equal(t, "fail", waitFor(t, attempts))
	assert.Equal(t, "ok", waitFor(t, attempts))
	assert.Eventually(t, func() bool { return outbox.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestOutbox_SingleFlushInFlight(t *testing.T) {
	store := newMockStore(t)
	release := make(chan struct{})
	written := make(chan string, 4)
	var active, maxActive atomic.Int32

	store.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snapshot persistence.RoomSnapshot) error {
			n := active.Add(1)
			for {
				cur := maxActive.Load()
				if n <= cur || maxActive.CompareAndSwap(cur, n) {
					break
				}
			}
			if snapshot.Code == "444444" {
				<-release
			}
			active.Add(-1)
			written <- snapshot.Code
			return nil
		}).Times(2)

	outbox := persistence.NewOutbox(store, newFakeSource("444444", "555555"), 10*time.Millisecond, nil)
	defer outbox.Close()

	outbox.MarkDirty("444444")
	require.Eventually(t, func() bool { return active.Load() == 1 }, time.Second, time.Millisecond)

	outbox.MarkDirty("555555")
	time.Sleep(50 * time.Millisecond)
	close(release)

	assert.Equal(t, "444444", waitFor(t, written))
	assert.Equal(t, "555555", waitFor(t, written))
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestOutbox_FlushDrainsSynchronously(t *testing.T) {
	store := newMockStore(t)
	store.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	store.EXPECT().Delete(gomock.Any(), "777777").Return(nil).Times(1)

	source := newFakeSource("666666")
	outbox := persistence.NewOutbox(store, source, time.Hour, nil)
	defer outbox.Close()

	outbox.MarkDirty("666666")
	outbox.MarkDeleted("777777")
	// vanished before the flush: nothing to write
	outbox.MarkDirty("888888")
	require.Equal(t, 3, outbox.Pending())

	require.NoError(t, outbox.Flush(context.Background()))
	assert.Equal(t, 0, outbox.Pending())
}

func TestOutbox_FlushReportsFailures(t *testing.T) {
	store := newMockStore(t)
	store.EXPECT().Delete(gomock.Any(), "999999").Return(errors.New("connection refused")).Times(1)

	outbox := persistence.NewOutbox(store, newFakeSource(), time.Hour, nil)
	outbox.Close()

	outbox.MarkDeleted("999999")
	require.Error(t, outbox.Flush(context.Background()))
	assert.Equal(t, 1, outbox.Pending())
}
