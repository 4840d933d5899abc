package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/core"
	"github.com/studyhive/studyhive/internal/domain"
	"github.com/studyhive/studyhive/internal/store"
)

// Directory is the process-wide mapping from room id to its live session.
// Sessions are hydrated from the store at startup and created lazily on
// first reference after that; they live for the process lifetime.
type Directory struct {
	store store.RoomStore

	mu       sync.RWMutex
	sessions map[domain.RoomID]*core.RoomSession
}

func NewDirectory(st store.RoomStore) *Directory {
	return &Directory{
		store:    st,
		sessions: make(map[domain.RoomID]*core.RoomSession),
	}
}

// Hydrate creates an empty session for every durable room so listing views
// see them immediately after a restart.
func (d *Directory) Hydrate(ctx context.Context) error {
	rooms, err := d.store.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("hydrate rooms: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, room := range rooms {
		if _, ok := d.sessions[room.ID]; !ok {
			d.sessions[room.ID] = core.NewRoomSession(room.ID)
		}
	}
	log.Info().Str("module", "app.directory").Int("rooms", len(rooms)).Msg("hydrated room sessions")
	return nil
}

func (d *Directory) Get(roomID domain.RoomID) (*core.RoomSession, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[roomID]
	return s, ok
}

func (d *Directory) GetOrCreate(roomID domain.RoomID) *core.RoomSession {
	d.mu.RLock()
	s, ok := d.sessions[roomID]
	d.mu.RUnlock()
	if ok {
		return s
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok = d.sessions[roomID]; ok {
		return s
	}
	s = core.NewRoomSession(roomID)
	d.sessions[roomID] = s
	return s
}

// Sessions snapshots every live room session.
func (d *Directory) Sessions() []*core.RoomSession {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*core.RoomSession, 0, len(d.sessions))
	for _, s := range d.sessions {
		out = append(out, s)
	}
	return out
}

// Summaries merges every durable room with its live participant count.
func (d *Directory) Summaries(ctx context.Context) ([]domain.RoomSummary, error) {
	rooms, err := d.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	out := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		count := 0
		if s, ok := d.Get(room.ID); ok {
			count = s.ParticipantCount()
		}
		out = append(out, domain.RoomSummary{
			ID:           room.ID,
			Name:         room.Name,
			Topic:        room.Topic,
			Participants: count,
		})
	}
	return out, nil
}

// CreateRoom persists a new room with an empty shared document and creates
// its session. A persistence failure aborts the operation.
func (d *Directory) CreateRoom(ctx context.Context, name, topic string) (*domain.Room, error) {
	now := time.Now().UTC()
	room := &domain.Room{
		ID:        domain.NewRoomID(),
		Name:      name,
		Topic:     topic,
		Targets:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.store.InsertRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	d.GetOrCreate(room.ID)
	log.Info().Str("module", "app.directory").Str("room", string(room.ID)).
		Str("name", name).Msg("room created")
	return room, nil
}
