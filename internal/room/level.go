package room

import (
	"context"
	"fmt"
	"log/slog"
)

// RoomStatus is one row of Level.Status.
type RoomStatus struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
	Locked    bool   `json:"locked"`
}

// Level is an ordered sequence of rooms. Room i can be entered only once
// every room before it is solved.
type Level struct {
	rooms   []Room
	index   map[string]int
	store   CompletionStore
	current int
}

// NewLevel creates a level. store may be nil, in which case only
// completions observed in this process count.
func NewLevel(store CompletionStore, rooms ...Room) (*Level, error) {
	l := &Level{
		rooms:   rooms,
		index:   make(map[string]int, len(rooms)),
		store:   store,
		current: -1,
	}
	for i, r := range rooms {
		if _, dup := l.index[r.ID()]; dup {
			return nil, fmt.Errorf("duplicate room id %q", r.ID())
		}
		l.index[r.ID()] = i
	}
	return l, nil
}

// Rooms returns the rooms in order.
func (l *Level) Rooms() []Room {
	return l.rooms
}

// Room returns a room by id.
func (l *Level) Room(id string) (Room, bool) {
	i, ok := l.index[id]
	if !ok {
		return nil, false
	}
	return l.rooms[i], true
}

// Current returns the room last entered, nil before any.
func (l *Level) Current() Room {
	if l.current < 0 {
		return nil
	}
	return l.rooms[l.current]
}

// EnterRoom enters the room with the given id. ErrRoomLocked while any
// earlier room is unsolved; the current room is unchanged.
func (l *Level) EnterRoom(ctx context.Context, id string) (Room, error) {
	i, ok := l.index[id]
	if !ok {
		return nil, fmt.Errorf("unknown room %q", id)
	}
	for _, prev := range l.rooms[:i] {
		done, err := l.isCompleted(ctx, prev)
		if err != nil {
			return nil, err
		}
		if !done {
			slog.Info("room locked", "room", id, "requires", prev.ID())
			return nil, fmt.Errorf("%w: %s requires %s", ErrRoomLocked, id, prev.ID())
		}
	}

	r := l.rooms[i]
	if err := r.Enter(ctx); err != nil {
		return nil, err
	}
	l.current = i
	return r, nil
}

// Status reports completion and lock state for every room.
func (l *Level) Status(ctx context.Context) ([]RoomStatus, error) {
	out := make([]RoomStatus, len(l.rooms))
	blocked := false
	for i, r := range l.rooms {
		done, err := l.isCompleted(ctx, r)
		if err != nil {
			return nil, err
		}
		out[i] = RoomStatus{ID: r.ID(), Completed: done, Locked: blocked}
		if !done {
			blocked = true
		}
	}
	return out, nil
}

func (l *Level) isCompleted(ctx context.Context, r Room) (bool, error) {
	if r.Completed() {
		return true, nil
	}
	if l.store == nil {
		return false, nil
	}
	done, err := l.store.IsRoomCompleted(ctx, r.ID())
	if err != nil {
		return false, fmt.Errorf("check room %s: %w", r.ID(), err)
	}
	return done, nil
}
