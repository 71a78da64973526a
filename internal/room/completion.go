package room

import (
	"context"
	"sort"
	"sync"
)

// CompletionStore persists which rooms have been solved.
// Implemented by store.Store and MemoryCompletions.
type CompletionStore interface {
	IsRoomCompleted(ctx context.Context, roomID string) (bool, error)
	MarkRoomCompleted(ctx context.Context, roomID, session string) error
}

// MemoryCompletions is an in-process CompletionStore. Safe for concurrent use.
type MemoryCompletions struct {
	mu    sync.Mutex
	rooms map[string]string // room id -> session that solved it
}

// NewMemoryCompletions creates a store with the given rooms already solved.
func NewMemoryCompletions(completed ...string) *MemoryCompletions {
	m := &MemoryCompletions{rooms: make(map[string]string)}
	for _, id := range completed {
		m.rooms[id] = ""
	}
	return m
}

// IsRoomCompleted implements CompletionStore.
func (m *MemoryCompletions) IsRoomCompleted(_ context.Context, roomID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rooms[roomID]
	return ok, nil
}

// MarkRoomCompleted implements CompletionStore. The first session is kept.
func (m *MemoryCompletions) MarkRoomCompleted(_ context.Context, roomID, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		m.rooms[roomID] = session
	}
	return nil
}

// Completed returns the solved room ids in sorted order.
func (m *MemoryCompletions) Completed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
