package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/availability-scheduler/internal/slots"
	"github.com/example/availability-scheduler/internal/store"
)

const (
	DefaultMaxMembers     = 60
	DefaultMaxUnavailable = 5000

	codeSpace    = 1000000
	codeAttempts = 20
)

// Publisher delivers a push event to one live connection. Implementations
// must not block and must not call back into the service.
type Publisher interface {
	Publish(connID, event string, payload any)
}

// ChangeRecorder receives the codes of rooms whose durable form changed.
type ChangeRecorder interface {
	MarkDirty(code string)
	MarkDeleted(code string)
}

// TokenIssuer signs and verifies member resume tokens.
type TokenIssuer interface {
	Issue(code, memberID string, expiresAt time.Time) (string, error)
	Verify(token string) (code, memberID string, err error)
}

type pinHasher interface {
	Hash(pin string) (salt, hash string, err error)
	Verify(pin, salt, hash string) error
}

// RoomServiceConfig wires the dependencies of a RoomService. Only Store is required.
type RoomServiceConfig struct {
	Store          store.Store
	Changes        ChangeRecorder
	Publisher      Publisher
	Tokens         TokenIssuer
	Hasher         *PinHasher
	Slots          *slots.Engine
	IDGenerator    func() string
	CodeGenerator  func() string
	Now            func() time.Time
	MaxMembers     int
	MaxUnavailable int
	Logger         *slog.Logger
}

// RoomService executes every room command. A single mutex serialises all
// commands so each one observes and leaves a consistent state.
type RoomService struct {
	mu sync.Mutex

	rooms     store.Store
	changes   ChangeRecorder
	publisher Publisher
	tokens    TokenIssuer
	hasher    pinHasher
	engine    *slots.Engine

	idGenerator   func() string
	codeGenerator func() string
	now           func() time.Time

	maxMembers     int
	maxUnavailable int

	// connection id -> binding
	sessions map[string]Session

	logger *slog.Logger
}

// NewRoomService constructs a room service, filling defaults for omitted dependencies.
func NewRoomService(cfg RoomServiceConfig) *RoomService {
	svc := &RoomService{
		rooms:          cfg.Store,
		changes:        cfg.Changes,
		publisher:      cfg.Publisher,
		tokens:         cfg.Tokens,
		engine:         cfg.Slots,
		idGenerator:    cfg.IDGenerator,
		codeGenerator:  cfg.CodeGenerator,
		now:            cfg.Now,
		maxMembers:     cfg.MaxMembers,
		maxUnavailable: cfg.MaxUnavailable,
		sessions:       make(map[string]Session),
		logger:         defaultLogger(cfg.Logger),
	}
	if cfg.Hasher != nil {
		svc.hasher = *cfg.Hasher
	} else {
		svc.hasher = NewPinHasher(DefaultArgon2idParams)
	}
	if svc.engine == nil {
		svc.engine = slots.NewEngine(slots.DefaultMaxSpanDays)
	}
	if svc.idGenerator == nil {
		svc.idGenerator = uuid.NewString
	}
	if svc.codeGenerator == nil {
		svc.codeGenerator = randomCode
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.maxMembers <= 0 {
		svc.maxMembers = DefaultMaxMembers
	}
	if svc.maxUnavailable <= 0 {
		svc.maxUnavailable = DefaultMaxUnavailable
	}
	return svc
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// RoomCount returns the number of live rooms.
func (s *RoomService) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.Len()
}

// CreateRoom validates the request, creates the room with its owner and binds
// the calling connection to the owner.
func (s *RoomService) CreateRoom(ctx context.Context, connID string, params CreateRoomParams) (result CreateRoomResult, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", "conn_id", connID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create room", "room created", "room_code", result.Code)
	}()

	params = normalizeCreateParams(params)
	rules := slots.Rules{
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		DayStart:    params.DayStart,
		DayEnd:      params.DayEnd,
		SlotMinutes: params.SlotMinutes,
		TimeZone:    params.TimeZone,
	}
	parsed, err := validateCreate(s.engine, params, rules)
	if err != nil {
		return
	}

	// hashing is slow; keep it outside the lock
	salt, hash, hashErr := s.hasher.Hash(params.PIN)
	if hashErr != nil {
		err = fmt.Errorf("hash pin: %w", hashErr)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	code, err := s.allocateCodeLocked(now)
	if err != nil {
		return
	}

	room := store.NewRoom(code, rules, parsed, slots.Expand(parsed))
	room.Title = params.Title
	room.CreatorName = params.CreatorName
	room.CreatedAt = now
	room.UpdatedAt = now

	owner := store.NewMember(s.idGenerator(), params.CreatorName, salt, hash, now)
	room.AddMember(owner)
	room.OwnerMemberID = owner.ID

	s.rooms.Put(room)
	s.bindLocked(connID, room, owner.ID)
	s.markDirtyLocked(room.Code)

	result = CreateRoomResult{
		Code:        room.Code,
		MemberID:    owner.ID,
		ExpiresOn:   parsed.End.AddDays(1).String(),
		ExpiresAt:   room.ExpiresAt,
		ResumeToken: s.issueTokenLocked(ctx, logger, room, owner.ID),
		Room:        roomInfo(room),
	}
	s.broadcastLocked(room)
	return
}

// UpdateTitle renames the room. Only the owner may call it.
func (s *RoomService) UpdateTitle(ctx context.Context, connID string, claim Claim, title string) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "UpdateTitle", "conn_id", connID, "room_code", claim.Code)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update title", "title updated")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, room, err := s.ownerSessionLocked(ctx, connID, claim)
	if err != nil {
		return
	}

	title = clampString(title, maxTitleLength)
	if title == "" {
		err = ErrTitleRequired
		return
	}

	room.Title = title
	room.UpdatedAt = s.now()
	s.markDirtyLocked(room.Code)
	s.broadcastLocked(room)
	return
}

// Kick removes a member. Only the owner may call it and the owner cannot be kicked.
func (s *RoomService) Kick(ctx context.Context, connID string, claim Claim, targetID string) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "Kick", "conn_id", connID, "room_code", claim.Code, "target_id", targetID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to kick member", "member kicked")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, room, err := s.ownerSessionLocked(ctx, connID, claim)
	if err != nil {
		return
	}
	if room.IsOwner(targetID) {
		err = ErrCannotKickOwner
		return
	}
	if _, ok := room.Member(targetID); !ok {
		err = ErrTargetNotFound
		return
	}

	conns := room.RemoveMember(targetID)
	s.detachLocked(conns, EventRoomKicked, Notice{OK: true, Code: room.Code})
	room.UpdatedAt = s.now()
	s.markDirtyLocked(room.Code)
	s.broadcastLocked(room)
	return
}

// Dissolve deletes the room after telling every connection. Only the owner may call it.
func (s *RoomService) Dissolve(ctx context.Context, connID string, claim Claim) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "Dissolve", "conn_id", connID, "room_code", claim.Code)
	defer func() {
		logOutcome(ctx, logger, err, "failed to dissolve room", "room dissolved")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, room, err := s.ownerSessionLocked(ctx, connID, claim)
	if err != nil {
		return
	}
	s.removeRoomLocked(room, EventRoomDissolved)
	return
}

// State returns the calling connection's view of its room.
func (s *RoomService) State(ctx context.Context, connID string, claim Claim) (view RoomView, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, room, err := s.sessionLocked(ctx, connID, claim)
	if err != nil {
		s.loggerWith(ctx, "State", "conn_id", connID).DebugContext(ctx, "state rejected", "error", err)
		return
	}
	view = BuildView(room, session)
	return
}

// lookupLocked returns the live room for code. An expired room is torn down
// on the spot and reported as missing.
func (s *RoomService) lookupLocked(ctx context.Context, code string) (*store.Room, error) {
	room, ok := s.rooms.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Expired(s.now()) {
		s.removeRoomLocked(room, EventRoomExpired)
		s.loggerWith(ctx, "expire", "room_code", code).InfoContext(ctx, "room expired on access")
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// removeRoomLocked notifies and detaches every connection, then deletes the room.
func (s *RoomService) removeRoomLocked(room *store.Room, event string) {
	s.detachLocked(room.ClearConnections(), event, Notice{OK: true, Code: room.Code})
	s.rooms.Delete(room.Code)
	if s.changes != nil {
		s.changes.MarkDeleted(room.Code)
	}
}

func (s *RoomService) markDirtyLocked(code string) {
	if s.changes != nil {
		s.changes.MarkDirty(code)
	}
}

func (s *RoomService) issueTokenLocked(ctx context.Context, logger *slog.Logger, room *store.Room, memberID string) string {
	if s.tokens == nil {
		return ""
	}
	token, err := s.tokens.Issue(room.Code, memberID, room.ExpiresAt)
	if err != nil {
		logger.WarnContext(ctx, "failed to issue resume token", "error", err)
		return ""
	}
	return token
}

var errCodesExhausted = errors.New("no free room code")

// allocateCodeLocked draws random codes, then probes forward from a clock
// derived start when the draws keep colliding.
func (s *RoomService) allocateCodeLocked(now time.Time) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := s.codeGenerator()
		if !s.rooms.Has(code) {
			return code, nil
		}
	}
	start := now.UnixMilli() % codeSpace
	for i := int64(0); i < codeSpace; i++ {
		code := fmt.Sprintf("%06d", (start+i)%codeSpace)
		if !s.rooms.Has(code) {
			return code, nil
		}
	}
	return "", errCodesExhausted
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%codeSpace)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
