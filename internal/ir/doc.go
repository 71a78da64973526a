// Package ir provides the shared intermediate representation for gatehouse.
//
// This package contains type definitions and serialization helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the wiring tables produced by the compiler and the puzzle types consumed by
// the runtime on one foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Node references are resolved integer indices, never names, after compile
//   - NO float types in serialized payloads - use int64 for numbers
//   - Resolved tables and events use snake_case JSON; authored wiring
//     documents keep their camelCase field names (wallName, slotName)
//   - Logical clocks (seq) only, never wall-clock timestamps, for ordering
package ir
