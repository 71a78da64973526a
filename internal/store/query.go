package store

import (
	"context"
	"strings"
)

// EventFilter selects logged events. Zero fields match everything.
type EventFilter struct {
	Room     string
	Session  string
	Kind     string
	AfterSeq int64 // only events with seq > AfterSeq
}

type predicate struct {
	column string
	op     string
	value  any
}

// predicates returns the filter's conditions in a fixed column order.
func (f EventFilter) predicates() []predicate {
	var preds []predicate
	if f.Session != "" {
		preds = append(preds, predicate{"session", "=", f.Session})
	}
	if f.Room != "" {
		preds = append(preds, predicate{"room", "=", f.Room})
	}
	if f.Kind != "" {
		preds = append(preds, predicate{"kind", "=", f.Kind})
	}
	if f.AfterSeq > 0 {
		preds = append(preds, predicate{"seq", ">", f.AfterSeq})
	}
	return preds
}

// compile returns parameterized SQL for the filter.
//
// CRITICAL: values are bound as parameters, never interpolated.
// CRITICAL: every query orders by seq with an id tiebreaker.
func (f EventFilter) compile() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT id, session, room, seq, payload FROM events")

	preds := f.predicates()
	args := make([]any, 0, len(preds))
	for i, p := range preds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(p.column + " " + p.op + " ?")
		args = append(args, p.value)
	}

	sb.WriteString(" ORDER BY seq ASC, id COLLATE BINARY ASC")
	return sb.String(), args
}

// QueryEvents returns the events matching f, ordered by seq.
//
// Returns empty slice (not nil) if no events match.
func (s *Store) QueryEvents(ctx context.Context, f EventFilter) ([]StoredEvent, error) {
	query, args := f.compile()
	return s.queryEvents(ctx, query, args...)
}
