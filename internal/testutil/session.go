package testutil

import "github.com/roach88/gatehouse/internal/engine"

// DefaultSession is the id FixedSession falls back to.
const DefaultSession = "test-session-default"

var _ engine.SessionGenerator = FixedSession("")

// FixedSession returns the same session id for every room visit, so every
// event of a scenario carries one id.
//
// Unlike engine.FixedGenerator it never runs out, which suits scenarios
// that re-enter a room an unknown number of times.
type FixedSession string

// Generate returns the session id, or DefaultSession when empty.
func (s FixedSession) Generate() string {
	if s == "" {
		return DefaultSession
	}
	return string(s)
}
