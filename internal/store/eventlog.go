package store

import (
	"context"
	"log/slog"

	"github.com/roach88/gatehouse/internal/engine"
)

// EventLog is an engine.Observer that appends every event to the store.
//
// ERROR HANDLING: a failed append is logged and the event dropped. The puzzle
// keeps running; the log is an audit trail, not the source of truth.
type EventLog struct {
	store *Store
	ctx   context.Context
	err   error
}

// NewEventLog returns an observer writing to s. ctx bounds every write.
func NewEventLog(ctx context.Context, s *Store) *EventLog {
	return &EventLog{store: s, ctx: ctx}
}

// Observe implements engine.Observer.
func (l *EventLog) Observe(e engine.Event) {
	if _, err := l.store.AppendEvent(l.ctx, e); err != nil {
		slog.Error("event append failed",
			"seq", e.Seq,
			"kind", e.Kind,
			"room", e.Room,
			"error", err,
		)
		if l.err == nil {
			l.err = err
		}
	}
}

// Err returns the first append failure, if any.
func (l *EventLog) Err() error {
	return l.err
}
