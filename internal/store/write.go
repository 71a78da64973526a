package store

import (
	"context"
	"fmt"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

// MarkRoomCompleted records roomID as solved in session.
// Uses ON CONFLICT DO NOTHING: a room keeps the session that first solved it.
// completed_at picks up the seq of an already logged RoomCompleted event.
func (s *Store) MarkRoomCompleted(ctx context.Context, roomID, session string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completed_rooms (room_id, session, completed_at)
		VALUES (?, ?, COALESCE((
			SELECT MAX(seq) FROM events
			WHERE room = ? AND session = ? AND kind = ?
		), 0))
		ON CONFLICT(room_id) DO NOTHING
	`, roomID, session, roomID, session, string(engine.KindRoomCompleted))
	if err != nil {
		return fmt.Errorf("mark room completed: %w", err)
	}
	return nil
}

// AppendEvent inserts an observation event and returns its id.
// The id is content-addressed over session, seq and payload, so appending
// the same event twice is silently ignored.
func (s *Store) AppendEvent(ctx context.Context, e engine.Event) (string, error) {
	payload, err := marshalPayload(e)
	if err != nil {
		return "", fmt.Errorf("append event: %w", err)
	}
	id, err := ir.EventID(e.Session, e.Seq, e.Payload())
	if err != nil {
		return "", fmt.Errorf("append event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, session, room, seq, kind, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, e.Session, e.Room, e.Seq, string(e.Kind), payload)
	if err != nil {
		return "", fmt.Errorf("append event: %w", err)
	}

	if e.Kind == engine.KindRoomCompleted {
		// Refines completed_at when the room was marked before its event landed.
		_, err = s.db.ExecContext(ctx, `
			UPDATE completed_rooms SET completed_at = ?
			WHERE room_id = ? AND session = ? AND completed_at = 0
		`, e.Seq, e.Room, e.Session)
		if err != nil {
			return "", fmt.Errorf("append event: %w", err)
		}
	}
	return id, nil
}
