package persistence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DefaultFlushDelay is the debounce window that coalesces bursts of marks.
const DefaultFlushDelay = 250 * time.Millisecond

// Source reads the current snapshot of a live room at flush time.
type Source interface {
	Snapshot(code string) (RoomSnapshot, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(code string) (RoomSnapshot, bool)

// Snapshot implements Source.
func (f SourceFunc) Snapshot(code string) (RoomSnapshot, bool) { return f(code) }

// Outbox tracks rooms that changed or disappeared since the last flush and
// writes them to a SnapshotStore after a debounce delay.
//
// At most one flush runs at a time. A flush requested while another is in
// flight queues a single follow-up. Failed writes are re-queued and retried on
// the next cycle; they never surface to the command that marked the room.
type Outbox struct {
	store  SnapshotStore
	source Source
	delay  time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	dirty    map[string]struct{}
	deleted  map[string]struct{}
	timer    *time.Timer
	inFlight bool
	pending  bool
	idle     *sync.Cond
	closed   bool
}

// NewOutbox constructs an outbox. A non-positive delay selects DefaultFlushDelay.
func NewOutbox(store SnapshotStore, source Source, delay time.Duration, logger *slog.Logger) *Outbox {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &Outbox{
		store:   store,
		source:  source,
		delay:   delay,
		logger:  logger.With("component", "outbox", "backend", store.Name()),
		dirty:   make(map[string]struct{}),
		deleted: make(map[string]struct{}),
	}
	o.idle = sync.NewCond(&o.mu)
	return o
}

// MarkDirty schedules an upsert of the room's current state.
func (o *Outbox) MarkDirty(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.deleted, code)
	o.dirty[code] = struct{}{}
	o.scheduleLocked()
}

// MarkDeleted schedules removal of the room's snapshot.
func (o *Outbox) MarkDeleted(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.dirty, code)
	o.deleted[code] = struct{}{}
	o.scheduleLocked()
}

// Pending reports how many rooms await a write.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.dirty) + len(o.deleted)
}

// scheduleLocked restarts the debounce timer. A single timer is reused so
// marks never stack flushes.
func (o *Outbox) scheduleLocked() {
	if o.closed {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.delay, o.run)
}

func (o *Outbox) run() {
	o.mu.Lock()
	if o.inFlight {
		o.pending = true
		o.mu.Unlock()
		return
	}
	o.inFlight = true
	o.mu.Unlock()

	failed := o.drain(context.Background())

	o.mu.Lock()
	o.inFlight = false
	again := o.pending || failed
	o.pending = false
	if again && len(o.dirty)+len(o.deleted) > 0 {
		o.scheduleLocked()
	}
	o.idle.Broadcast()
	o.mu.Unlock()
}

// drain takes the current batch and writes it. It reports whether any write failed.
func (o *Outbox) drain(ctx context.Context) bool {
	o.mu.Lock()
	dirty := lo.Keys(o.dirty)
	deleted := lo.Keys(o.deleted)
	o.dirty = make(map[string]struct{})
	o.deleted = make(map[string]struct{})
	o.mu.Unlock()

	if len(dirty) == 0 && len(deleted) == 0 {
		return false
	}

	var failedDirty, failedDeleted []string
	for _, code := range deleted {
		if err := o.store.Delete(ctx, code); err != nil {
			o.logger.ErrorContext(ctx, "failed to delete room snapshot", "room_code", code, "error", err)
			failedDeleted = append(failedDeleted, code)
		}
	}
	written := 0
	for _, code := range dirty {
		snapshot, ok := o.source.Snapshot(code)
		if !ok {
			continue
		}
		if err := o.store.Upsert(ctx, snapshot); err != nil {
			o.logger.ErrorContext(ctx, "failed to upsert room snapshot", "room_code", code, "error", err)
			failedDirty = append(failedDirty, code)
			continue
		}
		written++
	}

	if len(failedDirty)+len(failedDeleted) > 0 {
		o.mu.Lock()
		for _, code := range failedDeleted {
			if _, remarked := o.dirty[code]; !remarked {
				o.deleted[code] = struct{}{}
			}
		}
		for _, code := range failedDirty {
			if _, removed := o.deleted[code]; !removed {
				o.dirty[code] = struct{}{}
			}
		}
		o.mu.Unlock()
		return true
	}

	o.logger.DebugContext(ctx, "flushed room snapshots", "upserted", written, "deleted", len(deleted))
	return false
}

// Flush waits for any in-flight flush and then drains everything pending
// synchronously. It returns an error if writes are still pending afterwards.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
	}
	for o.inFlight {
		if err := ctx.Err(); err != nil {
			o.mu.Unlock()
			return err
		}
		o.idle.Wait()
	}
	o.inFlight = true
	o.mu.Unlock()

	failed := o.drain(ctx)

	o.mu.Lock()
	o.inFlight = false
	remaining := len(o.dirty) + len(o.deleted)
	if o.pending && remaining > 0 {
		o.scheduleLocked()
	}
	o.pending = false
	o.idle.Broadcast()
	o.mu.Unlock()

	if failed || remaining > 0 {
		return errors.New("persistence: snapshots left unflushed")
	}
	return nil
}

// Close stops the debounce timer. Marks after Close are kept but never scheduled.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	if o.timer != nil {
		o.timer.Stop()
	}
	o.mu.Unlock()
}
