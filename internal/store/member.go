package store

import (
	"time"

	"github.com/example/availability-scheduler/internal/slots"
)

// Member is a PIN-authenticated participant of one room.
type Member struct {
	ID          string
	Name        string
	PinSalt     string
	PinHash     string
	ConfirmedAt *time.Time
	JoinedAt    time.Time
	LastSeenAt  time.Time

	unavailable map[string]struct{}
}

// NewMember constructs a member that joined at the given instant.
func NewMember(id, name, salt, hash string, joinedAt time.Time) *Member {
	return &Member{
		ID:          id,
		Name:        name,
		PinSalt:     salt,
		PinHash:     hash,
		JoinedAt:    joinedAt,
		LastSeenAt:  joinedAt,
		unavailable: make(map[string]struct{}),
	}
}

// Touch records activity.
func (m *Member) Touch(at time.Time) {
	m.LastSeenAt = at
}

// ReplaceUnavailable swaps the unavailable set wholesale and clears any confirmation.
func (m *Member) ReplaceUnavailable(ids []string) {
	m.unavailable = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m.unavailable[id] = struct{}{}
	}
	m.ConfirmedAt = nil
}

// RestoreUnavailable sets the unavailable set without touching confirmation.
func (m *Member) RestoreUnavailable(ids []string) {
	m.unavailable = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m.unavailable[id] = struct{}{}
	}
}

// Unavailable returns the marked slot ids in chronological order.
func (m *Member) Unavailable() []string {
	out := make([]string, 0, len(m.unavailable))
	for id := range m.unavailable {
		out = append(out, id)
	}
	slots.Sort(out)
	return out
}

// Confirm stamps the confirmation time.
func (m *Member) Confirm(at time.Time) {
	confirmed := at
	m.ConfirmedAt = &confirmed
}
