package persistence

import (
	"strings"
	"time"
)

// Defaults applied to snapshots written before the field existed.
const (
	DefaultTitle       = "Untitled session"
	DefaultSlotMinutes = 30
	DefaultDayStart    = "09:00"
	DefaultDayEnd      = "23:00"
	DefaultTimeZone    = "UTC"
)

// RoomSnapshot is the durable form of a room.
type RoomSnapshot struct {
	Code          string           `json:"code" bson:"code"`
	Title         string           `json:"title" bson:"title"`
	CreatorName   string           `json:"creatorName" bson:"creatorName"`
	StartDate     string           `json:"startDate" bson:"startDate"`
	EndDate       string           `json:"endDate" bson:"endDate"`
	DayStart      string           `json:"dayStart,omitempty" bson:"dayStart"`
	DayEnd        string           `json:"dayEnd,omitempty" bson:"dayEnd"`
	SlotMinutes   int              `json:"slotMinutes,omitempty" bson:"slotMinutes"`
	TimeZone      string           `json:"timeZone,omitempty" bson:"timeZone"`
	OwnerMemberID string           `json:"ownerMemberId" bson:"ownerMemberId"`
	CreatedAt     time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt" bson:"updatedAt"`
	ExpiresAt     time.Time        `json:"expiresAt" bson:"expiresAt"`
	Slots         []string         `json:"slots,omitempty" bson:"slots"`
	Members       []MemberSnapshot `json:"members" bson:"members"`
}

// MemberSnapshot is the durable form of a member.
type MemberSnapshot struct {
	ID          string     `json:"id" bson:"id"`
	Name        string     `json:"name" bson:"name"`
	PinSalt     string     `json:"pinSalt" bson:"pinSalt"`
	PinHash     string     `json:"pinHash" bson:"pinHash"`
	JoinedAt    time.Time  `json:"joinedAt" bson:"joinedAt"`
	LastSeenAt  time.Time  `json:"lastSeenAt" bson:"lastSeenAt"`
	Unavailable []string   `json:"unavailable" bson:"unavailable"`
	ConfirmedAt *time.Time `json:"confirmedAt" bson:"confirmedAt"`
}

// WithDefaults fills fields missing from older snapshots.
func (s RoomSnapshot) WithDefaults() RoomSnapshot {
	s.Code = strings.TrimSpace(s.Code)
	if strings.TrimSpace(s.Title) == "" {
		s.Title = DefaultTitle
	}
	if s.SlotMinutes == 0 {
		s.SlotMinutes = DefaultSlotMinutes
	}
	if s.DayStart == "" {
		s.DayStart = DefaultDayStart
	}
	if s.DayEnd == "" {
		s.DayEnd = DefaultDayEnd
	}
	if s.TimeZone == "" {
		s.TimeZone = DefaultTimeZone
	}
	return s
}

// Expired reports whether the snapshot has a known expiry at or before now.
func (s RoomSnapshot) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy.
func (s RoomSnapshot) Clone() RoomSnapshot {
	out := s
	out.Slots = append([]string(nil), s.Slots...)
	out.Members = make([]MemberSnapshot, len(s.Members))
	for i, m := range s.Members {
		out.Members[i] = m
		out.Members[i].Unavailable = append([]string(nil), m.Unavailable...)
		if m.ConfirmedAt != nil {
			confirmed := *m.ConfirmedAt
			out.Members[i].ConfirmedAt = &confirmed
		}
	}
	return out
}
