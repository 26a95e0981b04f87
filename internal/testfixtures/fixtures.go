package testfixtures

import (
	"time"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/persistence"
)

// CreateOption adjusts the parameters built by NewCreateParams.
type CreateOption func(*application.CreateRoomParams)

// NewCreateParams returns a valid three-day, three-hour, hourly session in UTC
// starting 2025-01-10. It yields nine slots.
func NewCreateParams(opts ...CreateOption) application.CreateRoomParams {
	params := application.CreateRoomParams{
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
	for _, opt := range opts {
		opt(&params)
	}
	return params
}

// WithTitle sets the session title.
func WithTitle(title string) CreateOption {
	return func(p *application.CreateRoomParams) { p.Title = title }
}

// WithCreator sets the creator name and PIN.
func WithCreator(name, pin string) CreateOption {
	return func(p *application.CreateRoomParams) {
		p.CreatorName = name
		p.PIN = pin
	}
}

// WithDates sets the inclusive date range.
func WithDates(start, end string) CreateOption {
	return func(p *application.CreateRoomParams) {
		p.StartDate = start
		p.EndDate = end
	}
}

// WithWindow sets the daily window and slot length.
func WithWindow(dayStart, dayEnd string, slotMinutes int) CreateOption {
	return func(p *application.CreateRoomParams) {
		p.DayStart = dayStart
		p.DayEnd = dayEnd
		p.SlotMinutes = slotMinutes
	}
}

// WithTimeZone sets the IANA zone.
func WithTimeZone(zone string) CreateOption {
	return func(p *application.CreateRoomParams) { p.TimeZone = zone }
}

// SnapshotOption adjusts a snapshot built by NewSnapshot.
type SnapshotOption func(*persistence.RoomSnapshot)

// NewSnapshot returns a stored room matching NewCreateParams with one member,
// the owner, who has no unavailable slots.
func NewSnapshot(code string, opts ...SnapshotOption) persistence.RoomSnapshot {
	created := ReferenceTime()
	snapshot := persistence.RoomSnapshot{
		Code:          code,
		Title:         "Team sync",
		CreatorName:   "Alice",
		StartDate:     "2025-01-10",
		EndDate:       "2025-01-12",
		DayStart:      "09:00",
		DayEnd:        "12:00",
		SlotMinutes:   60,
		TimeZone:      "UTC",
		OwnerMemberID: "member-1",
		CreatedAt:     created,
		UpdatedAt:     created,
		ExpiresAt:     time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC),
		Members: []persistence.MemberSnapshot{{
			ID:          "member-1",
			Name:        "Alice",
			JoinedAt:    created,
			LastSeenAt:  created,
			Unavailable: []string{},
		}},
	}
	for _, opt := range opts {
		opt(&snapshot)
	}
	return snapshot
}

// WithExpiry overrides the snapshot expiry.
func WithExpiry(expiresAt time.Time) SnapshotOption {
	return func(s *persistence.RoomSnapshot) { s.ExpiresAt = expiresAt }
}

// WithMember appends a member with the given unavailable slot ids.
func WithMember(id, name string, unavailable ...string) SnapshotOption {
	return func(s *persistence.RoomSnapshot) {
		if unavailable == nil {
			unavailable = []string{}
		}
		s.Members = append(s.Members, persistence.MemberSnapshot{
			ID:          id,
			Name:        name,
			JoinedAt:    s.CreatedAt,
			LastSeenAt:  s.CreatedAt,
			Unavailable: unavailable,
		})
	}
}
