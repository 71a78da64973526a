package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/gatehouse/internal/engine"
)

// Completion is one row of completed_rooms.
type Completion struct {
	RoomID      string
	Session     string
	CompletedAt int64 // seq of the RoomCompleted event, 0 if never logged
}

// StoredEvent is a logged event with its content-addressed id.
type StoredEvent struct {
	ID string
	engine.Event
}

// IsRoomCompleted reports whether roomID has been solved.
func (s *Store) IsRoomCompleted(ctx context.Context, roomID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM completed_rooms WHERE room_id = ?
	`, roomID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query completed room: %w", err)
	}
	return true, nil
}

// CompletedRooms lists every solved room, in room id order.
//
// Returns empty slice (not nil) if no room is completed.
func (s *Store) CompletedRooms(ctx context.Context) ([]Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room_id, session, completed_at
		FROM completed_rooms
		ORDER BY room_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query completed rooms: %w", err)
	}
	defer rows.Close()

	out := []Completion{}
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.RoomID, &c.Session, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completed room: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed rooms: %w", err)
	}
	return out, nil
}

// ReadEvents returns the whole log, or only room's events when room is
// non-empty. Results are ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns empty slice (not nil) if no events match.
func (s *Store) ReadEvents(ctx context.Context, room string) ([]StoredEvent, error) {
	return s.QueryEvents(ctx, EventFilter{Room: room})
}

// ReadSession returns the events of one room visit.
func (s *Store) ReadSession(ctx context.Context, session string) ([]StoredEvent, error) {
	return s.QueryEvents(ctx, EventFilter{Session: session})
}

// MaxSeq returns the highest logged seq, 0 for an empty log. Hosts resume
// their clock from it so seq stays monotonic across runs.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query max seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []StoredEvent{}
	for rows.Next() {
		var (
			ev      StoredEvent
			payload string
		)
		if err := rows.Scan(&ev.ID, &ev.Session, &ev.Room, &ev.Seq, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := unmarshalPayload(payload, &ev.Event); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
