// Package store implements the durable room store on SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/studyhive/studyhive/internal/domain"
)

// RoomStore is the persistence gateway consumed by the app layer. A missing
// room is reported as (nil, nil) from FindRoom, not as an error.
type RoomStore interface {
	FindRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	InsertRoom(ctx context.Context, room *domain.Room) error
	UpdateRoomFields(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) error
	ListRooms(ctx context.Context) ([]domain.Room, error)
	CountRooms(ctx context.Context) (int, error)
	Close() error
}

type SQLiteStore struct {
	db *sql.DB
}

func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("module", "store").Str("path", dbPath).Msg("database initialized")
	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		timer_seconds INTEGER NOT NULL DEFAULT 0,
		targets TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_updated_at ON rooms(updated_at DESC);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, topic, notes, timer_seconds, targets, created_at, updated_at FROM rooms WHERE id = ?",
		string(id),
	)
	room, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *SQLiteStore) InsertRoom(ctx context.Context, room *domain.Room) error {
	targets, err := json.Marshal(room.Targets)
	if err != nil {
		return fmt.Errorf("encode targets: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO rooms (id, name, topic, notes, timer_seconds, targets, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		string(room.ID), room.Name, room.Topic, room.Notes, room.Timer, string(targets),
		room.CreatedAt, room.UpdatedAt,
	)
	return err
}

// UpdateRoomFields applies a partial patch; nil fields are left untouched.
// updated_at always advances.
func (s *SQLiteStore) UpdateRoomFields(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) error {
	if patch.Empty() {
		return nil
	}

	set := "updated_at = ?"
	args := []any{time.Now().UTC()}
	if patch.Notes != nil {
		set += ", notes = ?"
		args = append(args, *patch.Notes)
	}
	if patch.Timer != nil {
		set += ", timer_seconds = ?"
		args = append(args, *patch.Timer)
	}
	if patch.Targets != nil {
		targets, err := json.Marshal(*patch.Targets)
		if err != nil {
			return fmt.Errorf("encode targets: %w", err)
		}
		set += ", targets = ?"
		args = append(args, string(targets))
	}
	args = append(args, string(id))

	_, err := s.db.ExecContext(ctx, "UPDATE rooms SET "+set+" WHERE id = ?", args...)
	return err
}

func (s *SQLiteStore) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, topic, notes, timer_seconds, targets, created_at, updated_at FROM rooms ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

func (s *SQLiteStore) CountRooms(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*domain.Room, error) {
	var room domain.Room
	var id, targets string
	if err := row.Scan(&id, &room.Name, &room.Topic, &room.Notes, &room.Timer,
		&targets, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	room.ID = domain.RoomID(id)
	if err := json.Unmarshal([]byte(targets), &room.Targets); err != nil {
		return nil, fmt.Errorf("decode targets for room %s: %w", id, err)
	}
	return &room, nil
}
