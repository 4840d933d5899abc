package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/core"
	"github.com/studyhive/studyhive/internal/domain"
)

// Session is the descriptor the registry keeps per live connection. RoomID
// and Username stay empty until the connection is attached to a room.
type Session struct {
	ConnID   core.ConnID
	UserID   domain.UserID
	RoomID   domain.RoomID
	Username string
	Conn     core.Conn
}

// Registry maps live transport connections to session descriptors. It is the
// only component that knows how to reach a user; everyone else goes through
// LookupByUser and treats a miss as "peer no longer reachable".
type Registry struct {
	mu     sync.RWMutex
	byConn map[core.ConnID]*Session
	byUser map[domain.UserID]core.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[core.ConnID]*Session),
		byUser: make(map[domain.UserID]core.ConnID),
	}
}

// Register assigns a fresh user id to a new connection and returns the
// descriptor. The caller is responsible for delivering user-id-assigned.
func (r *Registry) Register(connID core.ConnID, conn core.Conn) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{ConnID: connID, UserID: domain.NewUserID(), Conn: conn}
	r.byConn[connID] = s
	r.byUser[s.UserID] = connID
	log.Info().Str("module", "app.registry").Str("conn", string(connID)).
		Str("user", string(s.UserID)).Msg("connection registered")
	return *s
}

// Attach records the room and display name once the user is admitted.
func (r *Registry) Attach(connID core.ConnID, roomID domain.RoomID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byConn[connID]; ok {
		s.RoomID = roomID
		s.Username = username
		log.Info().Str("module", "app.registry").Str("conn", string(connID)).
			Str("room", string(roomID)).Str("username", username).Msg("session attached")
	}
}

// Detach clears the room association but keeps the connection registered.
func (r *Registry) Detach(connID core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byConn[connID]; ok {
		s.RoomID = ""
	}
}

func (r *Registry) Get(connID core.ConnID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.byConn[connID]; ok {
		return *s, true
	}
	return Session{}, false
}

func (r *Registry) LookupByUser(userID domain.UserID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if connID, ok := r.byUser[userID]; ok {
		if s, ok := r.byConn[connID]; ok {
			return *s, true
		}
	}
	return Session{}, false
}

// Remove drops the connection and returns its last descriptor so the caller
// can clean up room membership.
func (r *Registry) Remove(connID core.ConnID) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byConn[connID]
	if !ok {
		return Session{}, false
	}
	delete(r.byConn, connID)
	delete(r.byUser, s.UserID)
	log.Info().Str("module", "app.registry").Str("conn", string(connID)).
		Str("user", string(s.UserID)).Msg("connection removed")
	return *s, true
}

// All snapshots every live session, used for system-wide fan-out such as
// room summaries and participant counts.
func (r *Registry) All() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.byConn))
	for _, s := range r.byConn {
		out = append(out, *s)
	}
	return out
}
