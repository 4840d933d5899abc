package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

// NewRoomID returns a globally unique identifier, stable across restarts
// once persisted.
func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

// Room is the durable document backing a study room. The live membership
// state lives in core.RoomSession, not here.
type Room struct {
	ID        RoomID    `json:"id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	Notes     string    `json:"notes"`
	Timer     int       `json:"timer"`
	Targets   []string  `json:"targets"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RoomSummary is the listing view: the durable identity plus the live
// participant count (0 when no session exists yet).
type RoomSummary struct {
	ID           RoomID `json:"id"`
	Name         string `json:"name"`
	Topic        string `json:"topic"`
	Participants int    `json:"participants"`
}

// RoomPatch is a partial update of the shared document. Nil fields are left
// untouched by the store.
type RoomPatch struct {
	Notes   *string
	Timer   *int
	Targets *[]string
}

func (p RoomPatch) Empty() bool {
	return p.Notes == nil && p.Timer == nil && p.Targets == nil
}
