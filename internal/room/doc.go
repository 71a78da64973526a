// Package room ties the puzzle components into playable rooms.
//
// A LogicRoom owns one circuit graph per wiring group and the goal register
// their sinks feed. A ComparisonRoom owns a bit-matrix puzzle and the
// scheduler behind its retry cycle. Both are rebuilt on every Enter unless
// the completion store already lists them, in which case they stay inert.
//
// A Level orders rooms and refuses entry to a room while an earlier one is
// unsolved. A Host serializes commands from any goroutine onto one loop that
// also drives the current room's scheduler.
//
// Rooms and levels are single-threaded values. Only Host is safe for
// concurrent use.
package room
