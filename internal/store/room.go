package store

import (
	"sort"
	"time"

	"github.com/example/availability-scheduler/internal/slots"
)

// Room is a scheduling entity with its members and live connection index.
type Room struct {
	Code          string
	Title         string
	CreatorName   string
	Rules         slots.Rules
	Parsed        slots.Parsed
	OwnerMemberID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     time.Time

	slots   []string
	slotSet map[string]struct{}
	members map[string]*Member
	// member id -> connection ids bound to it
	sockets map[string]map[string]struct{}
}

// NewRoom constructs an empty room with the given slot list.
func NewRoom(code string, rules slots.Rules, parsed slots.Parsed, ids []string) *Room {
	room := &Room{
		Code:      code,
		Rules:     rules,
		Parsed:    parsed,
		ExpiresAt: parsed.ExpiresAt(),
		members:   make(map[string]*Member),
		sockets:   make(map[string]map[string]struct{}),
	}
	room.SetSlots(ids)
	return room
}

// SetSlots replaces the derived slot list.
func (r *Room) SetSlots(ids []string) {
	r.slots = append([]string(nil), ids...)
	r.slotSet = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		r.slotSet[id] = struct{}{}
	}
}

// Slots returns the room's slot identifiers in ascending order.
func (r *Room) Slots() []string {
	return append([]string(nil), r.slots...)
}

// HasSlot reports whether id belongs to the room.
func (r *Room) HasSlot(id string) bool {
	_, ok := r.slotSet[id]
	return ok
}

// Expired reports whether now is at or past the expiry instant.
func (r *Room) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IsOwner reports whether memberID owns the room.
func (r *Room) IsOwner(memberID string) bool {
	return memberID != "" && memberID == r.OwnerMemberID
}

// Member returns the member with the given id.
func (r *Room) Member(id string) (*Member, bool) {
	m, ok := r.members[id]
	return m, ok
}

// MemberByName returns the member whose name matches exactly.
func (r *Room) MemberByName(name string) (*Member, bool) {
	for _, m := range r.members {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// NameTaken reports whether another member already uses name.
func (r *Room) NameTaken(name, exceptID string) bool {
	m, ok := r.MemberByName(name)
	return ok && m.ID != exceptID
}

// MemberCount returns the number of members.
func (r *Room) MemberCount() int {
	return len(r.members)
}

// AddMember inserts m, replacing any member with the same id.
func (r *Room) AddMember(m *Member) {
	r.members[m.ID] = m
}

// RemoveMember deletes the member and returns the connections that were bound to it.
func (r *Room) RemoveMember(id string) []string {
	conns := r.ConnectionsOf(id)
	delete(r.members, id)
	delete(r.sockets, id)
	return conns
}

// Members returns members ordered owner first, then by join time.
func (r *Room) Members() []*Member {
	out := make([]*Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := r.IsOwner(out[i].ID), r.IsOwner(out[j].ID)
		if oi != oj {
			return oi
		}
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Bind records that connID acts as memberID.
func (r *Room) Bind(memberID, connID string) {
	set, ok := r.sockets[memberID]
	if !ok {
		set = make(map[string]struct{})
		r.sockets[memberID] = set
	}
	set[connID] = struct{}{}
}

// Unbind removes connID from memberID's connections.
func (r *Room) Unbind(memberID, connID string) {
	set, ok := r.sockets[memberID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.sockets, memberID)
	}
}

// Online reports whether memberID has at least one bound connection.
func (r *Room) Online(memberID string) bool {
	return len(r.sockets[memberID]) > 0
}

// ConnectionsOf lists the connections bound to memberID.
func (r *Room) ConnectionsOf(memberID string) []string {
	set := r.sockets[memberID]
	out := make([]string, 0, len(set))
	for conn := range set {
		out = append(out, conn)
	}
	sort.Strings(out)
	return out
}

// Connections lists every bound connection in the room.
func (r *Room) Connections() []string {
	out := make([]string, 0)
	for memberID := range r.sockets {
		out = append(out, r.ConnectionsOf(memberID)...)
	}
	sort.Strings(out)
	return out
}

// ClearConnections drops the whole socket index and returns what was bound.
func (r *Room) ClearConnections() []string {
	conns := r.Connections()
	r.sockets = make(map[string]map[string]struct{})
	return conns
}
