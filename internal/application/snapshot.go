package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/slots"
	"github.com/example/availability-scheduler/internal/store"
)

// Snapshot returns the durable form of the room with code.
func (s *RoomService) Snapshot(code string) (persistence.RoomSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms.Get(code)
	if !ok {
		return persistence.RoomSnapshot{}, false
	}
	return toSnapshot(room), true
}

func toSnapshot(room *store.Room) persistence.RoomSnapshot {
	members := room.Members()
	out := persistence.RoomSnapshot{
		Code:          room.Code,
		Title:         room.Title,
		CreatorName:   room.CreatorName,
		StartDate:     room.Rules.StartDate,
		EndDate:       room.Rules.EndDate,
		DayStart:      room.Rules.DayStart,
		DayEnd:        room.Rules.DayEnd,
		SlotMinutes:   room.Rules.SlotMinutes,
		TimeZone:      room.Rules.TimeZone,
		OwnerMemberID: room.OwnerMemberID,
		CreatedAt:     room.CreatedAt,
		UpdatedAt:     room.UpdatedAt,
		ExpiresAt:     room.ExpiresAt,
		Slots:         room.Slots(),
		Members:       make([]persistence.MemberSnapshot, 0, len(members)),
	}
	for _, m := range members {
		ms := persistence.MemberSnapshot{
			ID:          m.ID,
			Name:        m.Name,
			PinSalt:     m.PinSalt,
			PinHash:     m.PinHash,
			JoinedAt:    m.JoinedAt,
			LastSeenAt:  m.LastSeenAt,
			Unavailable: m.Unavailable(),
		}
		if m.ConfirmedAt != nil {
			confirmed := *m.ConfirmedAt
			ms.ConfirmedAt = &confirmed
		}
		out.Members = append(out.Members, ms)
	}
	return out
}

// Restore rehydrates persisted rooms. Expired rooms and rooms that can no
// longer be read are dropped and their deletion recorded.
func (s *RoomService) Restore(ctx context.Context, snapshots []persistence.RoomSnapshot) (restored int, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Restore", "snapshots", len(snapshots))
	defer func() {
		logOutcome(ctx, logger, err, "failed to restore rooms", "rooms restored", "restored", restored)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, snap := range snapshots {
		room, convErr := s.fromSnapshot(snap)
		if convErr != nil {
			logger.WarnContext(ctx, "dropping unreadable room", "room_code", snap.Code, "error", convErr)
			if snap.Code != "" && s.changes != nil {
				s.changes.MarkDeleted(snap.Code)
			}
			continue
		}
		if room.Expired(now) {
			if s.changes != nil {
				s.changes.MarkDeleted(room.Code)
			}
			continue
		}
		s.rooms.Put(room)
		restored++
	}
	return
}

func (s *RoomService) fromSnapshot(snap persistence.RoomSnapshot) (*store.Room, error) {
	snap = snap.WithDefaults()
	if snap.Code == "" {
		return nil, persistence.ErrCorruptSnapshot
	}
	rules := slots.Rules{
		StartDate:   snap.StartDate,
		EndDate:     snap.EndDate,
		DayStart:    snap.DayStart,
		DayEnd:      snap.DayEnd,
		SlotMinutes: snap.SlotMinutes,
		TimeZone:    snap.TimeZone,
	}
	parsed, err := s.engine.ParseStored(rules)
	if err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	ids := make([]string, 0, len(snap.Slots))
	for _, id := range snap.Slots {
		if slots.Valid(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		ids = slots.Expand(parsed)
	} else {
		ids = uniqueSorted(ids)
	}

	room := store.NewRoom(snap.Code, rules, parsed, ids)
	room.Title = clampString(snap.Title, maxTitleLength)
	room.CreatorName = clampString(snap.CreatorName, maxNameLength)
	room.OwnerMemberID = snap.OwnerMemberID
	room.CreatedAt = snap.CreatedAt
	room.UpdatedAt = snap.UpdatedAt

	for _, ms := range snap.Members {
		id := strings.TrimSpace(ms.ID)
		if id == "" {
			continue
		}
		member := store.NewMember(id, ms.Name, ms.PinSalt, ms.PinHash, ms.JoinedAt)
		member.LastSeenAt = ms.LastSeenAt
		if ms.ConfirmedAt != nil {
			member.Confirm(*ms.ConfirmedAt)
		}
		member.RestoreUnavailable(s.restoreUnavailable(room, ms.Unavailable))
		room.AddMember(member)
	}
	return room, nil
}

// restoreUnavailable converts legacy date|clock keys and drops ids outside the room.
func (s *RoomService) restoreUnavailable(room *store.Room, raw []string) []string {
	converted := make([]string, 0, len(raw))
	for _, key := range raw {
		if slots.IsLegacyKey(key) {
			id, ok := slots.MigrateLegacyKey(room.Parsed.Location, key)
			if !ok {
				continue
			}
			key = id
		}
		converted = append(converted, key)
	}
	return s.filterUnavailable(room, converted)
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slots.Sort(out)
	return out
}
