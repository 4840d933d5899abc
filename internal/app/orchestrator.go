package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/core"
	"github.com/studyhive/studyhive/internal/domain"
	"github.com/studyhive/studyhive/internal/store"
)

// Orchestrator coordinates the registry, the room directory and the store.
// Every inbound event lands here; it mutates shared state and pushes
// outbound events to the affected connections.
type Orchestrator struct {
	Registry *Registry
	Rooms    *Directory
	Store    store.RoomStore
}

func NewOrchestrator(reg *Registry, rooms *Directory, st store.RoomStore) *Orchestrator {
	return &Orchestrator{Registry: reg, Rooms: rooms, Store: st}
}

// Connect registers the connection, assigns a user id and tells the peer.
func (o *Orchestrator) Connect(connID core.ConnID, conn core.Conn) Session {
	sess := o.Registry.Register(connID, conn)
	o.deliver(conn, core.EvUserIDAssigned, sess.UserID)
	return sess
}

// Disconnect removes the connection, its room membership and any pending
// join request left behind by the departing user.
func (o *Orchestrator) Disconnect(connID core.ConnID) {
	sess, ok := o.Registry.Remove(connID)
	if !ok {
		return
	}
	if sess.RoomID != "" {
		o.leaveRoom(sess)
	}
	o.pruneJoinRequests(sess.UserID)
}

// ListRooms delivers the current summaries to one connection.
func (o *Orchestrator) ListRooms(ctx context.Context, conn core.Conn) {
	summaries, err := o.Rooms.Summaries(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("list rooms")
		o.deliver(conn, core.EvError, "could not list rooms")
		return
	}
	o.deliver(conn, core.EvRoomsList, summaries)
}

// CreateRoom persists a new room and announces it to every connection so
// room-listing views update without a refresh. A persistence failure aborts
// the operation and nothing is broadcast.
func (o *Orchestrator) CreateRoom(ctx context.Context, name, topic string) (*domain.Room, error) {
	room, err := o.Rooms.CreateRoom(ctx, name, topic)
	if err != nil {
		return nil, err
	}
	o.broadcastAll(core.EvRoomCreated, domain.RoomSummary{
		ID:    room.ID,
		Name:  room.Name,
		Topic: room.Topic,
	})
	return room, nil
}

// leaveRoom deletes the participant entry and tells the remaining members.
func (o *Orchestrator) leaveRoom(sess Session) {
	rs, ok := o.Rooms.Get(sess.RoomID)
	if !ok {
		return
	}
	if rs.RemoveParticipant(sess.UserID) {
		o.notifyRoom(sess.RoomID, core.EvUserDisconnected, sess.UserID, "")
		o.PublishParticipantCount(sess.RoomID)
	}
}

// pruneJoinRequests drops any pending request from a departed user and
// refreshes the affected moderator's view.
func (o *Orchestrator) pruneJoinRequests(userID domain.UserID) {
	for _, rs := range o.Rooms.Sessions() {
		if _, ok := rs.TakeJoinRequest(userID); ok {
			o.deliverToUser(rs.ModeratorID(), core.EvJoinRequests, rs.JoinRequests())
		}
	}
}

// notifyRoom fans an event out to every participant except excludeUserID,
// skipping unreachable connections.
func (o *Orchestrator) notifyRoom(roomID domain.RoomID, event string, data any, excludeUserID domain.UserID) core.DeliveryStats {
	rs, ok := o.Rooms.Get(roomID)
	if !ok {
		return core.DeliveryStats{}
	}
	frame, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("event", event).Msg("encode")
		return core.DeliveryStats{}
	}
	var stats core.DeliveryStats
	for _, p := range rs.Participants() {
		if p.UserID == excludeUserID {
			continue
		}
		sess, ok := o.Registry.LookupByUser(p.UserID)
		if !ok {
			stats.Unreachable++
			continue
		}
		if err := sess.Conn.TrySend(frame); err != nil {
			stats.Unreachable++
			continue
		}
		stats.Delivered++
	}
	log.Debug().Str("module", "app.orchestrator").Str("room", string(roomID)).
		Str("event", event).Int("delivered", stats.Delivered).
		Int("unreachable", stats.Unreachable).Msg("room fan-out")
	return stats
}

// PublishParticipantCount emits the room's current size to every connection
// system-wide so listing views stay accurate.
func (o *Orchestrator) PublishParticipantCount(roomID domain.RoomID) {
	count := 0
	if rs, ok := o.Rooms.Get(roomID); ok {
		count = rs.ParticipantCount()
	}
	o.broadcastAll(core.EvParticipantCount, core.ParticipantCount{RoomID: roomID, Count: count})
}

func (o *Orchestrator) broadcastAll(event string, data any) core.DeliveryStats {
	frame, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("event", event).Msg("encode")
		return core.DeliveryStats{}
	}
	var stats core.DeliveryStats
	for _, sess := range o.Registry.All() {
		if err := sess.Conn.TrySend(frame); err != nil {
			stats.Unreachable++
			continue
		}
		stats.Delivered++
	}
	return stats
}

// deliver sends a single event to one connection, best-effort.
func (o *Orchestrator) deliver(conn core.Conn, event string, data any) core.Delivery {
	frame, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("event", event).Msg("encode")
		return core.PeerUnreachable
	}
	if err := conn.TrySend(frame); err != nil {
		return core.PeerUnreachable
	}
	return core.Delivered
}

// deliverToUser resolves the user's connection first; a miss is reported as
// PeerUnreachable rather than swallowed.
func (o *Orchestrator) deliverToUser(userID domain.UserID, event string, data any) core.Delivery {
	sess, ok := o.Registry.LookupByUser(userID)
	if !ok {
		return core.PeerUnreachable
	}
	return o.deliver(sess.Conn, event, data)
}
