package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/core"
	"github.com/studyhive/studyhive/internal/domain"
)

type notesPayload struct {
	Notes string `json:"notes"`
}

type timerPayload struct {
	Timer int `json:"timer"`
}

type targetsPayload struct {
	Targets []string `json:"targets"`
}

// UpdateNotes persists the new notes and fans them out to everyone in the
// room except the origin.
func (o *Orchestrator) UpdateNotes(ctx context.Context, origin domain.UserID, roomID domain.RoomID, notes string) <-chan error {
	return o.applyUpdate(ctx, origin, roomID, core.EvNotesUpdate,
		domain.RoomPatch{Notes: &notes}, notesPayload{Notes: notes})
}

func (o *Orchestrator) UpdateTimer(ctx context.Context, origin domain.UserID, roomID domain.RoomID, timer int) <-chan error {
	return o.applyUpdate(ctx, origin, roomID, core.EvTimerUpdate,
		domain.RoomPatch{Timer: &timer}, timerPayload{Timer: timer})
}

func (o *Orchestrator) UpdateTargets(ctx context.Context, origin domain.UserID, roomID domain.RoomID, targets []string) <-chan error {
	return o.applyUpdate(ctx, origin, roomID, core.EvTargetsUpdate,
		domain.RoomPatch{Targets: &targets}, targetsPayload{Targets: targets})
}

// applyUpdate is the broadcast synchronizer. The update is dropped when no
// session exists for the room or the origin is not one of its participants.
// Persistence runs asynchronously; its outcome
// is observable on the returned channel, and the in-memory broadcast
// proceeds regardless (durability is best-effort, availability first). Last
// writer wins per field; completion order of store calls decides the final
// persisted value.
func (o *Orchestrator) applyUpdate(ctx context.Context, origin domain.UserID, roomID domain.RoomID, event string, patch domain.RoomPatch, payload any) <-chan error {
	errc := make(chan error, 1)
	rs, ok := o.Rooms.Get(roomID)
	if !ok || !rs.HasParticipant(origin) {
		close(errc)
		return errc
	}

	// The write must survive the origin connection: a client that fires an
	// update and disconnects still gets eventual persistence.
	persistCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(errc)
		if err := o.Store.UpdateRoomFields(persistCtx, roomID, patch); err != nil {
			log.Error().Err(err).Str("module", "app.sync").Str("room", string(roomID)).
				Str("event", event).Msg("persist update")
			errc <- err
		}
	}()

	o.notifyRoom(roomID, event, payload, origin)
	return errc
}
