package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/domain"
)

// RoomSession is the live, in-memory state of one room: the admitted
// participants in insertion order, the pending join requests in arrival
// order, and the stored moderator role. It is threadsafe and owns only
// membership; transport resources belong to the adapter.
type RoomSession struct {
	roomID domain.RoomID

	mu           sync.RWMutex
	participants []domain.Participant
	requests     []domain.JoinRequest
	moderatorID  domain.UserID
}

func NewRoomSession(roomID domain.RoomID) *RoomSession {
	return &RoomSession{roomID: roomID}
}

func (s *RoomSession) RoomID() domain.RoomID { return s.roomID }

func (s *RoomSession) ParticipantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants)
}

func (s *RoomSession) HasParticipant(id domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// ModeratorID returns the stored moderator, or "" for an empty room.
func (s *RoomSession) ModeratorID() domain.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moderatorID
}

// AddParticipant appends p in insertion order. The first participant of an
// empty room becomes the moderator.
func (s *RoomSession) AddParticipant(p domain.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(p.UserID) >= 0 {
		return
	}
	s.participants = append(s.participants, p)
	if len(s.participants) == 1 {
		s.moderatorID = p.UserID
		log.Debug().Str("module", "core.session").Str("room", string(s.roomID)).
			Str("user", string(p.UserID)).Msg("moderator assigned")
	}
}

// RemoveParticipant deletes the user's entry, prunes any pending join
// request from the same user, and reassigns the moderator role to the
// next-earliest participant when the moderator departs. Reports whether an
// entry was removed.
func (s *RoomSession) RemoveParticipant(id domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		s.removeRequestLocked(id)
		return false
	}
	s.participants = append(s.participants[:i], s.participants[i+1:]...)
	s.removeRequestLocked(id)
	if s.moderatorID == id {
		s.moderatorID = ""
		if len(s.participants) > 0 {
			s.moderatorID = s.participants[0].UserID
		}
		log.Debug().Str("module", "core.session").Str("room", string(s.roomID)).
			Str("user", string(s.moderatorID)).Msg("moderator reassigned")
	}
	return true
}

// Participants returns a snapshot in insertion order.
func (s *RoomSession) Participants() []domain.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

// AddJoinRequest appends a pending request, keeping at most one per user.
// Reports whether a new request was queued.
func (s *RoomSession) AddJoinRequest(r domain.JoinRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.requests {
		if q.UserID == r.UserID {
			return false
		}
	}
	s.requests = append(s.requests, r)
	return true
}

// TakeJoinRequest removes and returns the pending request for id.
func (s *RoomSession) TakeJoinRequest(id domain.UserID) (domain.JoinRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.requests {
		if q.UserID == id {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			return q, true
		}
	}
	return domain.JoinRequest{}, false
}

func (s *RoomSession) JoinRequests() []domain.JoinRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.JoinRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *RoomSession) indexOf(id domain.UserID) int {
	for i, p := range s.participants {
		if p.UserID == id {
			return i
		}
	}
	return -1
}

func (s *RoomSession) removeRequestLocked(id domain.UserID) {
	for i, q := range s.requests {
		if q.UserID == id {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			return
		}
	}
}
