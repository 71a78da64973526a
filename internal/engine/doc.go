// Package engine holds the runtime primitives shared by every puzzle type.
//
// Puzzles (circuit graphs, goal registers, bit-matrix grids) are plain
// single-threaded values. They report what happened through an Emitter,
// defer corrective work through a Scheduler, and fail with PuzzleError
// values. None of them start goroutines.
//
// Ordering:
// Every observation event is stamped with a seq from a logical Clock. Wall
// time never orders events. The Scheduler keeps its own elapsed-time cursor
// that only moves when the host calls Advance, so a retry fires at the same
// point in the event stream on every run with the same input.
//
// Determinism:
// Due scheduler actions fire ordered by due time, then registration order.
// Actions scheduled while firing wait for the next Advance.
package engine
