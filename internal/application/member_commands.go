package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/example/availability-scheduler/internal/slots"
	"github.com/example/availability-scheduler/internal/store"
)

// Enter admits a connection to a room as a new or returning member.
//
// A returning member is recognised by resume token, by remembered member id
// plus PIN, or by name plus PIN. Anyone else becomes a new member.
func (s *RoomService) Enter(ctx context.Context, connID string, params EnterParams) (result EnterResult, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	code := strings.TrimSpace(params.Code)
	logger := s.loggerWith(ctx, "Enter", "conn_id", connID, "room_code", code)
	defer func() {
		logOutcome(ctx, logger, err, "failed to enter room", "member entered", "member_id", result.MemberID)
	}()

	name := clampString(params.Name, maxNameLength)
	plan, err := s.planEntry(ctx, code, name, params)
	if err != nil {
		return
	}
	// PIN work runs unlocked; the room is looked up again afterwards
	if err = s.checkEntryPin(&plan, params.PIN); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.lookupLocked(ctx, code)
	if err != nil {
		return
	}
	member, err := s.settleEntryLocked(room, name, plan)
	if err != nil {
		return
	}

	if name != "" && name != member.Name {
		if room.NameTaken(name, member.ID) {
			err = ErrNameTaken
			return
		}
		member.Name = name
	}

	now := s.now()
	member.Touch(now)
	room.UpdatedAt = now
	s.bindLocked(connID, room, member.ID)
	s.markDirtyLocked(room.Code)

	result = EnterResult{
		MemberID:    member.ID,
		IsHost:      room.IsOwner(member.ID),
		ResumeToken: s.issueTokenLocked(ctx, logger, room, member.ID),
		Room:        roomInfo(room),
	}
	s.broadcastLocked(room)
	return
}

// entryPlan is what Enter resolved about the caller before any PIN work.
type entryPlan struct {
	memberID string
	verify   bool
	create   bool
	salt     string
	hash     string
}

// planEntry resolves the caller to a known member or a new one under the lock.
func (s *RoomService) planEntry(ctx context.Context, code, name string, params EnterParams) (entryPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.lookupLocked(ctx, code)
	if err != nil {
		return entryPlan{}, err
	}

	if params.ResumeToken != "" && s.tokens != nil {
		member, err := s.resumeLocked(room, params.ResumeToken)
		if err != nil {
			return entryPlan{}, err
		}
		return entryPlan{memberID: member.ID}, nil
	}
	if id := strings.TrimSpace(params.MemberID); id != "" {
		if known, ok := room.Member(id); ok {
			return verifyPlan(known, params.PIN)
		}
	}

	if name == "" {
		return entryPlan{}, ErrNameRequired
	}
	if !ValidPin(params.PIN) {
		return entryPlan{}, ErrInvalidPin
	}
	if existing, ok := room.MemberByName(name); ok {
		return verifyPlan(existing, params.PIN)
	}
	if room.MemberCount() >= s.maxMembers {
		return entryPlan{}, ErrRoomFull
	}
	return entryPlan{create: true}, nil
}

func verifyPlan(member *store.Member, pin string) (entryPlan, error) {
	if !ValidPin(pin) {
		return entryPlan{}, ErrInvalidPin
	}
	return entryPlan{memberID: member.ID, verify: true, salt: member.PinSalt, hash: member.PinHash}, nil
}

func (s *RoomService) resumeLocked(room *store.Room, token string) (*store.Member, error) {
	code, memberID, err := s.tokens.Verify(token)
	if err != nil || code != room.Code {
		return nil, ErrUnauthorized
	}
	member, ok := room.Member(memberID)
	if !ok {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// checkEntryPin verifies the PIN of a returning member or hashes the PIN of
// a new one. It must be called without the lock.
func (s *RoomService) checkEntryPin(plan *entryPlan, pin string) error {
	switch {
	case plan.verify:
		if err := s.hasher.Verify(pin, plan.salt, plan.hash); err != nil {
			if errors.Is(err, ErrWrongPin) {
				return ErrWrongPin
			}
			return fmt.Errorf("verify pin: %w", err)
		}
	case plan.create:
		salt, hash, err := s.hasher.Hash(pin)
		if err != nil {
			return fmt.Errorf("hash pin: %w", err)
		}
		plan.salt, plan.hash = salt, hash
	}
	return nil
}

// settleEntryLocked re-checks the plan against the room as it is now.
func (s *RoomService) settleEntryLocked(room *store.Room, name string, plan entryPlan) (*store.Member, error) {
	if !plan.create {
		member, ok := room.Member(plan.memberID)
		if !ok {
			return nil, ErrMemberNotFound
		}
		if plan.verify && member.PinHash != plan.hash {
			return nil, ErrWrongPin
		}
		return member, nil
	}
	if _, ok := room.MemberByName(name); ok {
		return nil, ErrNameTaken
	}
	if room.MemberCount() >= s.maxMembers {
		return nil, ErrRoomFull
	}
	member := store.NewMember(s.idGenerator(), name, plan.salt, plan.hash, s.now())
	room.AddMember(member)
	return member, nil
}

// Rename changes the calling member's display name.
func (s *RoomService) Rename(ctx context.Context, connID string, claim Claim, newName string) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "Rename", "conn_id", connID, "room_code", claim.Code)
	defer func() {
		logOutcome(ctx, logger, err, "failed to rename member", "member renamed")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, room, err := s.sessionLocked(ctx, connID, claim)
	if err != nil {
		return
	}
	member, _ := room.Member(session.MemberID)

	name := clampString(newName, maxNameLength)
	if name == "" {
		err = ErrNameEmpty
		return
	}
	if room.NameTaken(name, member.ID) {
		err = ErrNameTaken
		return
	}

	now := s.now()
	member.Name = name
	member.Touch(now)
	room.UpdatedAt = now
	s.markDirtyLocked(room.Code)
	s.broadcastLocked(room)
	return
}

// SetUnavailable replaces the calling member's unavailable slots. Ids outside
// the room are dropped, the rest deduplicated and capped. Any confirmation is cleared.
func (s *RoomService) SetUnavailable(ctx context.Context, connID string, claim Claim, ids []string) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "SetUnavailable", "conn_id", connID, "room_code", claim.Code, "requested", len(ids))
	defer func() {
		logOutcome(ctx, logger, err, "failed to set unavailable slots", "unavailable slots replaced")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, room, err := s.sessionLocked(ctx, connID, claim)
	if err != nil {
		return
	}
	member, _ := room.Member(session.MemberID)

	member.ReplaceUnavailable(s.filterUnavailable(room, ids))
	now := s.now()
	member.Touch(now)
	room.UpdatedAt = now
	s.markDirtyLocked(room.Code)
	s.broadcastLocked(room)
	return
}

func (s *RoomService) filterUnavailable(room *store.Room, ids []string) []string {
	kept := lo.Filter(lo.Uniq(ids), func(id string, _ int) bool {
		return room.HasSlot(id)
	})
	slots.Sort(kept)
	if len(kept) > s.maxUnavailable {
		kept = kept[:s.maxUnavailable]
	}
	return kept
}

// Confirm stamps the calling member's confirmation and reports who hosts the room.
func (s *RoomService) Confirm(ctx context.Context, connID string, claim Claim) (result ConfirmResult, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Confirm", "conn_id", connID, "room_code", claim.Code)
	defer func() {
		logOutcome(ctx, logger, err, "failed to confirm", "member confirmed")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, room, err := s.sessionLocked(ctx, connID, claim)
	if err != nil {
		return
	}
	member, _ := room.Member(session.MemberID)

	now := s.now()
	member.Confirm(now)
	member.Touch(now)
	room.UpdatedAt = now
	s.markDirtyLocked(room.Code)

	result = ConfirmResult{HostName: hostName(room), ConfirmedAt: now}
	s.broadcastLocked(room)
	return
}

func hostName(room *store.Room) string {
	if owner, ok := room.Member(room.OwnerMemberID); ok && owner.Name != "" {
		return owner.Name
	}
	if room.CreatorName != "" {
		return room.CreatorName
	}
	return defaultCreatorName
}

// Leave unbinds the calling connection. The member record stays in the room.
func (s *RoomService) Leave(ctx context.Context, connID string, claim Claim) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "Leave", "conn_id", connID, "room_code", claim.Code)
	defer func() {
		logOutcome(ctx, logger, err, "failed to leave room", "member left")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[connID]
	if !ok {
		return
	}
	if (claim.Code != "" && claim.Code != session.RoomCode) || (claim.MemberID != "" && claim.MemberID != session.MemberID) {
		err = ErrUnauthorized
		return
	}
	if _, err = s.lookupLocked(ctx, session.RoomCode); err != nil {
		delete(s.sessions, connID)
		return
	}
	s.releaseLocked(connID)
	return
}

// Disconnect releases whatever the closed connection was bound to.
func (s *RoomService) Disconnect(ctx context.Context, connID string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, released := s.releaseLocked(connID); released {
		s.loggerWith(ctx, "Disconnect", "conn_id", connID, "room_code", session.RoomCode, "member_id", session.MemberID).
			DebugContext(ctx, "connection released")
	}
}

func (s *RoomService) releaseLocked(connID string) (Session, bool) {
	session, room, ok := s.unbindLocked(connID)
	if !ok || room == nil {
		return session, ok
	}
	if member, found := room.Member(session.MemberID); found {
		member.Touch(s.now())
		s.markDirtyLocked(room.Code)
	}
	s.broadcastLocked(room)
	return session, true
}
