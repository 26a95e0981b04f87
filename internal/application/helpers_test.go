package application

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/availability-scheduler/internal/slots"
	"github.com/example/availability-scheduler/internal/store/memory"
)

type publishedEvent struct {
	connID  string
	event   string
	payload any
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) Publish(connID, event string, payload any) {
	p.events = append(p.events, publishedEvent{connID: connID, event: event, payload: payload})
}

func (p *recordingPublisher) count(connID, event string) int {
	n := 0
	for _, e := range p.events {
		if e.connID == connID && e.event == event {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) lastState(t *testing.T, connID string) RoomView {
	t.Helper()
	for i := len(p.events) - 1; i >= 0; i-- {
		e := p.events[i]
		if e.connID == connID && e.event == EventRoomState {
			return e.payload.(RoomView)
		}
	}
	t.Fatalf("no room:state delivered to %s", connID)
	return RoomView{}
}

func (p *recordingPublisher) reset() {
	p.events = nil
}

type changeLog struct {
	dirty   []string
	deleted []string
}

func (c *changeLog) MarkDirty(code string)   { c.dirty = append(c.dirty, code) }
func (c *changeLog) MarkDeleted(code string) { c.deleted = append(c.deleted, code) }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// plainTokens is a reversible token issuer for tests.
type plainTokens struct{}

func (plainTokens) Issue(code, memberID string, _ time.Time) (string, error) {
	return code + ":" + memberID, nil
}

func (plainTokens) Verify(token string) (string, string, error) {
	code, memberID, ok := strings.Cut(token, ":")
	if !ok {
		return "", "", errors.New("malformed token")
	}
	return code, memberID, nil
}

type harness struct {
	svc       *RoomService
	publisher *recordingPublisher
	changes   *changeLog
	clock     *fakeClock
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newHarness(t *testing.T, mutate ...func(*RoomServiceConfig)) *harness {
	t.Helper()

	h := &harness{
		publisher: &recordingPublisher{},
		changes:   &changeLog{},
		clock:     &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	codes := 100000
	hasher := NewPinHasher(Argon2idParams{Memory: 64, Iterations: 1})
	cfg := RoomServiceConfig{
		Store:       memory.New(),
		Changes:     h.changes,
		Publisher:   h.publisher,
		Tokens:      plainTokens{},
		Hasher:      &hasher,
		Slots:       slots.NewEngine(slots.DefaultMaxSpanDays),
		IDGenerator: sequence("m"),
		CodeGenerator: func() string {
			codes++
			return fmt.Sprintf("%06d", codes)
		},
		Now:    h.clock.Now,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	h.svc = NewRoomService(cfg)
	return h
}

func validCreateParams() CreateRoomParams {
	return CreateRoomParams{
		Title:       "Team sync",
		CreatorName: "Alice",
		PIN:         "1234",
		StartDate:   "2025-01-10",
		EndDate:     "2025-01-12",
		DayStart:    "09:00",
		DayEnd:      "12:00",
		SlotMinutes: 60,
		TimeZone:    "UTC",
	}
}

func (h *harness) create(t *testing.T, connID string) CreateRoomResult {
	t.Helper()
	result, err := h.svc.CreateRoom(t.Context(), connID, validCreateParams())
	if err != nil {
		t.Fatalf("CreateRoom returned error: %v", err)
	}
	return result
}

func (h *harness) enter(t *testing.T, connID, code, name, pin string) EnterResult {
	t.Helper()
	result, err := h.svc.Enter(t.Context(), connID, EnterParams{Code: code, Name: name, PIN: pin})
	if err != nil {
		t.Fatalf("Enter(%s) returned error: %v", name, err)
	}
	return result
}

func expectCode(t *testing.T, err error, want *CommandError) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %s, got %v", want.Code, err)
	}
}
