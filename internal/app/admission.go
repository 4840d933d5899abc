package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/core"
	"github.com/studyhive/studyhive/internal/domain"
)

// RequestJoin runs the moderated join protocol. An empty room admits the
// requester immediately; otherwise the request is queued and the moderator
// is asked to decide.
func (o *Orchestrator) RequestJoin(ctx context.Context, connID core.ConnID, roomID domain.RoomID, username string) {
	sess, ok := o.Registry.Get(connID)
	if !ok {
		return
	}
	if err := domain.ValidateUsername(username); err != nil {
		o.deliver(sess.Conn, core.EvError, err.Error())
		return
	}

	room, err := o.Store.FindRoom(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("module", "app.admission").Str("room", string(roomID)).Msg("find room")
		o.deliver(sess.Conn, core.EvError, "could not load room")
		return
	}
	if room == nil {
		o.deliver(sess.Conn, core.EvRoomNotFound, nil)
		return
	}

	// A user is a member of at most one room through this protocol.
	if sess.RoomID != "" && sess.RoomID != roomID {
		o.leaveRoom(sess)
		o.Registry.Detach(connID)
	}

	rs := o.Rooms.GetOrCreate(roomID)
	if rs.ParticipantCount() > 0 {
		if !rs.AddJoinRequest(domain.JoinRequest{UserID: sess.UserID, Username: username}) {
			return // already pending
		}
		res := o.deliverToUser(rs.ModeratorID(), core.EvNewJoinRequest,
			domain.JoinRequest{UserID: sess.UserID, Username: username})
		if res == core.PeerUnreachable {
			log.Warn().Str("module", "app.admission").Str("room", string(roomID)).
				Str("moderator", string(rs.ModeratorID())).Msg("moderator unreachable for join request")
		}
		return
	}

	o.admit(ctx, sess, roomID, username)
}

// RespondToJoin resolves a pending request. Responding to a request that no
// longer exists is a silent no-op.
func (o *Orchestrator) RespondToJoin(ctx context.Context, connID core.ConnID, roomID domain.RoomID, requesterID domain.UserID, action string) {
	responder, ok := o.Registry.Get(connID)
	if !ok {
		return
	}
	rs, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	req, ok := rs.TakeJoinRequest(requesterID)
	if !ok {
		return
	}

	if action == core.ActionApprove {
		if target, ok := o.Registry.LookupByUser(requesterID); ok {
			o.deliver(target.Conn, core.EvJoinApproved, roomID)
			o.admit(ctx, target, roomID, req.Username)
		}
	} else {
		o.deliverToUser(requesterID, core.EvJoinRejected, roomID)
	}

	o.deliver(responder.Conn, core.EvJoinRequests, rs.JoinRequests())
}

// admit makes the user a participant: mutual discovery with the existing
// members, attach to the connection, full room-state snapshot to the new
// arrival, refreshed count to everyone.
func (o *Orchestrator) admit(ctx context.Context, sess Session, roomID domain.RoomID, username string) {
	// The registry descriptor may be stale by now (a pending requester can
	// have moved rooms); re-read it so the user never lands in two
	// participant maps.
	if cur, ok := o.Registry.Get(sess.ConnID); ok && cur.RoomID != "" && cur.RoomID != roomID {
		o.leaveRoom(cur)
		o.Registry.Detach(cur.ConnID)
	}

	// Re-read the durable room so the snapshot reflects the latest document.
	room, err := o.Store.FindRoom(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("module", "app.admission").Str("room", string(roomID)).Msg("find room")
		o.deliver(sess.Conn, core.EvError, "could not load room")
		return
	}
	if room == nil {
		o.deliver(sess.Conn, core.EvRoomNotFound, nil)
		return
	}

	rs := o.Rooms.GetOrCreate(roomID)

	// Mutual discovery, required for peer-connection setup.
	arrival := core.Presence{UserID: sess.UserID, Username: username}
	for _, p := range rs.Participants() {
		o.deliverToUser(p.UserID, core.EvUserConnected, arrival)
		o.deliver(sess.Conn, core.EvUserConnected, core.Presence{UserID: p.UserID, Username: p.Username})
	}

	rs.AddParticipant(domain.Participant{UserID: sess.UserID, Username: username})
	o.Registry.Attach(sess.ConnID, roomID, username)

	// An admitted user has no business waiting in other rooms' queues.
	o.pruneJoinRequests(sess.UserID)

	o.deliver(sess.Conn, core.EvRoomState, core.RoomState{
		Notes:        room.Notes,
		Timer:        room.Timer,
		Targets:      room.Targets,
		Participants: rs.Participants(),
		JoinRequests: rs.JoinRequests(),
		LocalUserID:  sess.UserID,
	})
	o.PublishParticipantCount(roomID)

	log.Info().Str("module", "app.admission").Str("room", string(roomID)).
		Str("user", string(sess.UserID)).Str("username", username).Msg("participant admitted")
}
