package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/gatehouse/internal/engine"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// bitEvent creates a stamped BitChanged event.
func bitEvent(session, room string, seq int64, bit int, value bool) engine.Event {
	return engine.Event{
		Seq:     seq,
		Session: session,
		Room:    room,
		Kind:    engine.KindBitChanged,
		Group:   1,
		Number:  3,
		Bit:     bit,
		Value:   value,
	}
}
