package application

import (
	"github.com/samber/lo"

	"github.com/example/availability-scheduler/internal/scheduler"
	"github.com/example/availability-scheduler/internal/store"
	"github.com/example/availability-scheduler/internal/zoned"
)

// BuildView renders room as seen by session. The owner sees which members
// marked each slot; everyone else sees counts only.
func BuildView(room *store.Room, session Session) RoomView {
	return buildView(room, conflictIndex(room), session)
}

func conflictIndex(room *store.Room) scheduler.Index {
	marks := lo.Map(room.Members(), func(m *store.Member, _ int) scheduler.Marks {
		return scheduler.Marks{MemberID: m.ID, Slots: m.Unavailable()}
	})
	return scheduler.BuildIndex(marks)
}

func buildView(room *store.Room, index scheduler.Index, session Session) RoomView {
	inRoom := session.RoomCode == room.Code
	privileged := inRoom && room.IsOwner(session.MemberID)

	members := lo.Map(room.Members(), func(m *store.Member, _ int) MemberView {
		return MemberView{
			ID:          m.ID,
			Name:        m.Name,
			IsOwner:     room.IsOwner(m.ID),
			Online:      room.Online(m.ID),
			JoinedAt:    m.JoinedAt,
			LastSeenAt:  m.LastSeenAt,
			ConfirmedAt: m.ConfirmedAt,
		}
	})

	var you *YouView
	if m, ok := room.Member(session.MemberID); ok && inRoom {
		you = &YouView{
			ID:          m.ID,
			Name:        m.Name,
			IsOwner:     privileged,
			Unavailable: m.Unavailable(),
			ConfirmedAt: m.ConfirmedAt,
		}
	}

	conflicts := ConflictView{Mode: ConflictModeCount, Data: index.Counts()}
	if privileged {
		conflicts = ConflictView{Mode: ConflictModeDetailed, Data: index.Detailed()}
	}

	return RoomView{
		OK:          true,
		Room:        roomInfo(room),
		Slots:       room.Slots(),
		Members:     members,
		MemberCount: len(members),
		You:         you,
		Conflicts:   conflicts,
		IsHost:      privileged,
	}
}

func roomInfo(room *store.Room) RoomInfo {
	return RoomInfo{
		Code:        room.Code,
		Title:       room.Title,
		StartDate:   room.Rules.StartDate,
		EndDate:     room.Rules.EndDate,
		DayStart:    zoned.FormatClock(room.Parsed.DayStart),
		DayEnd:      zoned.FormatClock(room.Parsed.DayEnd),
		SlotMinutes: room.Rules.SlotMinutes,
		TimeZone:    room.Rules.TimeZone,
		CreatorName: room.CreatorName,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
		ExpiresAt:   room.ExpiresAt,
	}
}
