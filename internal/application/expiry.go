package application

import (
	"context"

	"github.com/example/availability-scheduler/internal/store"
)

// SweepExpired removes every room whose expiry has passed and returns how many went.
func (s *RoomService) SweepExpired(ctx context.Context) int {
	if s == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []*store.Room
	s.rooms.Range(func(room *store.Room) bool {
		if room.Expired(now) {
			expired = append(expired, room)
		}
		return true
	})
	for _, room := range expired {
		s.removeRoomLocked(room, EventRoomExpired)
	}
	if len(expired) > 0 {
		s.loggerWith(ctx, "SweepExpired").InfoContext(ctx, "expired rooms removed", "count", len(expired))
	}
	return len(expired)
}
