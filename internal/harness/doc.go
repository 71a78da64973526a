// Package harness runs gatehouse puzzle scenarios as executable tests.
//
// A scenario builds one room from a wiring document or a comparison shape,
// fixes everything the room would otherwise draw at random, applies a list
// of placement steps and checks the observation events they produce.
//
// # Scenario Format
//
//	name: logic_two_walls
//	description: "Both sinks match the target"
//	room: logic                # logic | comparison
//	wiring: wiring/two.json    # relative to the scenario file; or inline walls:
//	seed: 7
//	session: golden-logic
//	setup:
//	  inputs: { west: { A: true, B: false } }
//	  target: [true, true]     # indexed by group
//	  numbers:                 # comparison rooms
//	    - { group: 0, number: 0, value: 170 }
//	steps:
//	  - place_gate: { group: west, slot: S, op: OR }
//	  - place_sign: { group: 0, pair: 0, sign: GreaterThan }
//	    expect: { correct: true }
//	  - tick: 2s
//	expect:
//	  completed: true
//	  goal: "11"
//	assertions:
//	  - type: event_contains
//	    kind: OutputChanged
//	    fields: { node: S, value: true }
//
// # Assertion Types
//
//   - event_contains: an event of kind carries every listed field
//   - event_count: exactly count events of kind
//   - event_order: the first event of each kind appears in the listed order
//   - pair_state: a bit-matrix pair is unset, wrong or correct
//   - load_error: the wiring loader reported an error with code
//
// # Deterministic Testing
//
// Every run uses a seeded generator, a fixed session id, a resettable
// logical clock and a fresh in-memory SQLite store. The trace starts after
// setup, with seq rebased to 1, so golden files do not depend on generated
// values that setup overrides.
package harness
