package harness

import (
	"maps"

	"github.com/roach88/gatehouse/internal/engine"
)

// TraceEvent is one observation event of a scenario run.
type TraceEvent struct {
	Seq    int64          `json:"seq"` // rebased: the first event after setup is 1
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields,omitempty"`
}

func newTraceEvent(e engine.Event, base int64) TraceEvent {
	fields := e.Payload()
	delete(fields, "kind")
	return TraceEvent{Seq: e.Seq - base, Kind: string(e.Kind), Fields: fields}
}

// flatten merges seq and kind into the fields for canonical output.
func (e TraceEvent) flatten() map[string]any {
	out := make(map[string]any, len(e.Fields)+2)
	maps.Copy(out, e.Fields)
	out["seq"] = e.Seq
	out["kind"] = e.Kind
	return out
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation, expect clause and
	// assertion held.
	Pass bool `json:"pass"`

	// Trace holds the events emitted after setup, in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// LoadErrors holds what the wiring loader reported. A scenario may
	// expect these through load_error assertions.
	LoadErrors []string `json:"load_errors,omitempty"`

	Session   string `json:"session"`
	Completed bool   `json:"completed"`
	Goal      string `json:"goal,omitempty"` // logic rooms: live register, highest group first
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
