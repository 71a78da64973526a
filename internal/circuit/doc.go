// Package circuit evaluates one wiring group as a combinational boolean
// circuit.
//
// A Graph is built from a compiled ir.WiringGroup. Input leaves receive
// their values once per room generation; slots receive gates as the player
// places them. Evaluation is pull-based and unmemoized: every call walks the
// reachable subgraph. The compiler guarantees the group is acyclic.
//
// A Graph is a single-threaded value owned by one room.
package circuit
