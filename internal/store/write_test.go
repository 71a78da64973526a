package store

import (
	"testing"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

func TestMarkRoomCompleted(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	done, err := s.IsRoomCompleted(ctx, "logic")
	if err != nil {
		t.Fatalf("IsRoomCompleted() failed: %v", err)
	}
	if done {
		t.Fatal("fresh store reports room completed")
	}

	if err := s.MarkRoomCompleted(ctx, "logic", "s1"); err != nil {
		t.Fatalf("MarkRoomCompleted() failed: %v", err)
	}
	done, err = s.IsRoomCompleted(ctx, "logic")
	if err != nil {
		t.Fatalf("IsRoomCompleted() failed: %v", err)
	}
	if !done {
		t.Error("room not completed after MarkRoomCompleted")
	}
}

func TestMarkRoomCompleted_KeepsFirstSession(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	if err := s.MarkRoomCompleted(ctx, "logic", "first"); err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	if err := s.MarkRoomCompleted(ctx, "logic", "second"); err != nil {
		t.Fatalf("second mark failed: %v", err)
	}

	rooms, err := s.CompletedRooms(ctx)
	if err != nil {
		t.Fatalf("CompletedRooms() failed: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("got %d rooms, want 1", len(rooms))
	}
	if rooms[0].Session != "first" {
		t.Errorf("session = %q, want first", rooms[0].Session)
	}
}

func TestMarkRoomCompleted_PicksUpLoggedSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	ev := engine.Event{Seq: 42, Session: "s1", Room: "logic", Kind: engine.KindRoomCompleted}
	if _, err := s.AppendEvent(ctx, ev); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}
	if err := s.MarkRoomCompleted(ctx, "logic", "s1"); err != nil {
		t.Fatalf("MarkRoomCompleted() failed: %v", err)
	}

	rooms, err := s.CompletedRooms(ctx)
	if err != nil {
		t.Fatalf("CompletedRooms() failed: %v", err)
	}
	if rooms[0].CompletedAt != 42 {
		t.Errorf("completed_at = %d, want 42", rooms[0].CompletedAt)
	}
}

func TestAppendEvent_UpdatesCompletedAt(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	if err := s.MarkRoomCompleted(ctx, "logic", "s1"); err != nil {
		t.Fatalf("MarkRoomCompleted() failed: %v", err)
	}
	ev := engine.Event{Seq: 7, Session: "s1", Room: "logic", Kind: engine.KindRoomCompleted}
	if _, err := s.AppendEvent(ctx, ev); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	rooms, _ := s.CompletedRooms(ctx)
	if rooms[0].CompletedAt != 7 {
		t.Errorf("completed_at = %d, want 7", rooms[0].CompletedAt)
	}
}

func TestAppendEvent_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	ev := bitEvent("s1", "comparison", 1, 0, true)

	id1, err := s.AppendEvent(ctx, ev)
	if err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	id2, err := s.AppendEvent(ctx, ev)
	if err != nil {
		t.Fatalf("second append failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("ids differ: %s vs %s", id1, id2)
	}
	if want := ir.MustEventID("s1", 1, ev.Payload()); id1 != want {
		t.Errorf("id = %s, want %s", id1, want)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestAppendEvent_CanonicalPayload(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	ev := engine.Event{Seq: 3, Session: "s1", Room: "logic", Kind: engine.KindOutputChanged, Group: 2, Node: "Slot_7", Value: true}

	id, err := s.AppendEvent(ctx, ev)
	if err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	var payload string
	if err := s.db.QueryRow("SELECT payload FROM events WHERE id = ?", id).Scan(&payload); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	want := `{"group":2,"kind":"OutputChanged","node":"Slot_7","value":true}`
	if payload != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}
