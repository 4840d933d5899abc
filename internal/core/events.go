package core

import (
	"encoding/json"

	"github.com/studyhive/studyhive/internal/domain"
)

// Inbound event names.
const (
	EvGetRooms            = "get-rooms"
	EvCreateRoom          = "create-new-room"
	EvJoinRoom            = "join-room"
	EvJoinRequestResponse = "join-request-response"
	EvSignal              = "signal"
	EvNotesUpdate         = "notes-update"
	EvTimerUpdate         = "timer-update"
	EvTargetsUpdate       = "targets-update"
)

// Outbound event names.
const (
	EvUserIDAssigned   = "user-id-assigned"
	EvRoomsList        = "rooms-list"
	EvRoomCreated      = "room-created"
	EvRoomNotFound     = "room-not-found"
	EvNewJoinRequest   = "new-join-request"
	EvJoinRequests     = "update-join-requests"
	EvJoinApproved     = "join-approved"
	EvJoinRejected     = "join-rejected"
	EvRoomState        = "room-state"
	EvUserConnected    = "user-connected"
	EvUserDisconnected = "user-disconnected"
	EvParticipantCount = "room-updated-participant-count"
	EvError            = "error"
)

// Join-request response actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Envelope is the wire format in both directions: a named event plus its
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an outbound event into a Frame.
func Encode(event string, data any) (Frame, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// RoomState is the full snapshot delivered to a newly admitted participant.
type RoomState struct {
	Notes        string               `json:"notes"`
	Timer        int                  `json:"timer"`
	Targets      []string             `json:"targets"`
	Participants []domain.Participant `json:"participants"`
	JoinRequests []domain.JoinRequest `json:"joinRequests"`
	LocalUserID  domain.UserID        `json:"localUserId"`
}

type ParticipantCount struct {
	RoomID domain.RoomID `json:"roomId"`
	Count  int           `json:"count"`
}

type Presence struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

// SignalOut carries a relayed payload to its target. Signal is opaque to the
// core and forwarded byte-for-byte.
type SignalOut struct {
	UserID domain.UserID   `json:"userId"`
	Signal json.RawMessage `json:"signal"`
}
