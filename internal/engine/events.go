package engine

import (
	"log/slog"
	"sync"
)

// EventKind names an observation event.
type EventKind string

const (
	KindOutputChanged EventKind = "OutputChanged"
	KindBitChanged    EventKind = "BitChanged"
	KindPairResolved  EventKind = "PairResolved"
	KindPairReset     EventKind = "PairReset"
	KindGoalSatisfied EventKind = "GoalSatisfied"
	KindRoomCompleted EventKind = "RoomCompleted"
)

// Event is an observation produced for rendering and UI collaborators.
//
// Which fields are meaningful depends on Kind; Payload returns only those.
type Event struct {
	Seq     int64
	Session string
	Room    string
	Kind    EventKind

	Group   int    // Wiring group or bit-matrix group index
	Node    string // OutputChanged: node id
	Number  int    // BitChanged: number index within the group
	Bit     int    // BitChanged: bit index, 0 is most significant
	Pair    int    // PairResolved, PairReset
	Value   bool   // OutputChanged, BitChanged
	Correct bool   // PairResolved
}

// Payload returns the kind-specific fields as a canonical-JSON-ready map.
// Seq, session and room are not included.
func (e Event) Payload() map[string]any {
	p := map[string]any{"kind": string(e.Kind)}
	switch e.Kind {
	case KindOutputChanged:
		p["group"] = e.Group
		p["node"] = e.Node
		p["value"] = e.Value
	case KindBitChanged:
		p["group"] = e.Group
		p["number"] = e.Number
		p["bit"] = e.Bit
		p["value"] = e.Value
	case KindPairResolved:
		p["group"] = e.Group
		p["pair"] = e.Pair
		p["correct"] = e.Correct
	case KindPairReset:
		p["group"] = e.Group
		p["pair"] = e.Pair
	}
	return p
}

// Observer receives observation events.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// Sequencer hands out seq values. Clock implements it; tests substitute a
// resettable clock.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Emitter stamps events with a seq and the current scope, then fans them out
// to observers in subscription order.
//
// A nil *Emitter discards events, so puzzles can be used without one.
type Emitter struct {
	clock     Sequencer
	session   string
	room      string
	observers []Observer
}

// NewEmitter creates an emitter drawing seq values from clock. A nil clock
// means a fresh Clock.
func NewEmitter(clock Sequencer, observers ...Observer) *Emitter {
	if clock == nil || isNilClock(clock) {
		clock = NewClock()
	}
	return &Emitter{clock: clock, observers: observers}
}

func isNilClock(s Sequencer) bool {
	c, ok := s.(*Clock)
	return ok && c == nil
}

// Subscribe adds an observer.
func (e *Emitter) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

// SetScope sets the session and room stamped on subsequent events.
func (e *Emitter) SetScope(session, room string) {
	if e == nil {
		return
	}
	e.session = session
	e.room = room
}

// Session returns the current session id.
func (e *Emitter) Session() string {
	if e == nil {
		return ""
	}
	return e.session
}

// Clock returns the emitter's seq source.
func (e *Emitter) Clock() Sequencer {
	if e == nil {
		return nil
	}
	return e.clock
}

// Emit stamps ev and delivers it to every observer.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	ev.Seq = e.clock.Next()
	ev.Session = e.session
	ev.Room = e.room

	slog.Debug("event", "seq", ev.Seq, "kind", ev.Kind, "room", ev.Room)
	for _, o := range e.observers {
		o.Observe(ev)
	}
}

// Recorder collects events in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe implements Observer.
func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events of one kind.
func (r *Recorder) OfKind(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	return len(r.OfKind(kind))
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
