package application

import (
	"context"

	"github.com/example/availability-scheduler/internal/store"
)

// sessionLocked resolves the binding of connID and checks it against claim.
func (s *RoomService) sessionLocked(ctx context.Context, connID string, claim Claim) (Session, *store.Room, error) {
	session, ok := s.sessions[connID]
	if !ok {
		return Session{}, nil, ErrUnauthorized
	}
	if claim.Code != "" && claim.Code != session.RoomCode {
		return Session{}, nil, ErrUnauthorized
	}
	if claim.MemberID != "" && claim.MemberID != session.MemberID {
		return Session{}, nil, ErrUnauthorized
	}

	room, err := s.lookupLocked(ctx, session.RoomCode)
	if err != nil {
		delete(s.sessions, connID)
		return Session{}, nil, err
	}
	if _, ok := room.Member(session.MemberID); !ok {
		delete(s.sessions, connID)
		room.Unbind(session.MemberID, connID)
		return Session{}, nil, ErrMemberNotFound
	}
	return session, room, nil
}

func (s *RoomService) ownerSessionLocked(ctx context.Context, connID string, claim Claim) (Session, *store.Room, error) {
	session, room, err := s.sessionLocked(ctx, connID, claim)
	if err != nil {
		return Session{}, nil, err
	}
	if !room.IsOwner(session.MemberID) {
		return Session{}, nil, ErrUnauthorized
	}
	return session, room, nil
}

// bindLocked points connID at memberID, dropping any earlier binding first.
func (s *RoomService) bindLocked(connID string, room *store.Room, memberID string) {
	if prev, prevRoom, ok := s.unbindLocked(connID); ok && prevRoom != nil && prev.RoomCode != room.Code {
		s.broadcastLocked(prevRoom)
	}
	s.sessions[connID] = Session{ConnID: connID, RoomCode: room.Code, MemberID: memberID}
	room.Bind(memberID, connID)
}

// unbindLocked forgets the binding of connID. The room is nil when it no
// longer exists or has just expired; an expired room is removed here.
func (s *RoomService) unbindLocked(connID string) (Session, *store.Room, bool) {
	session, ok := s.sessions[connID]
	if !ok {
		return Session{}, nil, false
	}
	delete(s.sessions, connID)
	room, found := s.rooms.Get(session.RoomCode)
	if !found {
		return session, nil, true
	}
	room.Unbind(session.MemberID, connID)
	if room.Expired(s.now()) {
		s.removeRoomLocked(room, EventRoomExpired)
		return session, nil, true
	}
	return session, room, true
}

// detachLocked forgets the given connections and sends each a final notice.
func (s *RoomService) detachLocked(conns []string, event string, notice Notice) {
	for _, connID := range conns {
		delete(s.sessions, connID)
		if s.publisher != nil {
			s.publisher.Publish(connID, event, notice)
		}
	}
}

// broadcastLocked pushes a tailored room:state to every bound connection.
func (s *RoomService) broadcastLocked(room *store.Room) {
	if s.publisher == nil {
		return
	}
	index := conflictIndex(room)
	for _, connID := range room.Connections() {
		session, ok := s.sessions[connID]
		if !ok {
			continue
		}
		s.publisher.Publish(connID, EventRoomState, buildView(room, index, session))
	}
}

// Sessions reports how many connections are currently bound to a member.
func (s *RoomService) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
