package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/slots"
	"github.com/example/availability-scheduler/internal/store/memory"
)

// FastPinParams keeps argon2id cheap enough for tests.
var FastPinParams = application.Argon2idParams{Memory: 64, Iterations: 1}

// ServiceFactory assists tests with constructing room services using
// deterministic identifiers, codes and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Codes       *CodeGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("")
	}
	if factory.Codes == nil {
		factory.Codes = NewCodeGenerator(100001)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the member identifier generator.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// RoomServiceDeps captures the collaborators a test wants to observe. Nil
// fields get in-memory or recording defaults.
type RoomServiceDeps struct {
	Publisher  application.Publisher
	Changes    application.ChangeRecorder
	Tokens     application.TokenIssuer
	MaxMembers int
	Logger     *slog.Logger
}

// NewRoomService builds a room service over a fresh in-memory store.
func (f *ServiceFactory) NewRoomService(deps RoomServiceDeps) *application.RoomService {
	if deps.Publisher == nil {
		deps.Publisher = NewRecordingPublisher()
	}
	if deps.Changes == nil {
		deps.Changes = &RecordingChanges{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	hasher := application.NewPinHasher(FastPinParams)
	return application.NewRoomService(application.RoomServiceConfig{
		Store:         memory.New(),
		Changes:       deps.Changes,
		Publisher:     deps.Publisher,
		Tokens:        deps.Tokens,
		Hasher:        &hasher,
		Slots:         slots.NewEngine(slots.DefaultMaxSpanDays),
		IDGenerator:   f.IDGenerator.NextFunc(),
		CodeGenerator: f.Codes.Next,
		Now:           f.Clock.NowFunc(),
		MaxMembers:    deps.MaxMembers,
		Logger:        deps.Logger,
	})
}
