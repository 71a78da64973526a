// Package testutil holds deterministic stand-ins for tests and scenario
// runs: a resettable seq clock and a constant session id.
package testutil

import (
	"sync"

	"github.com/roach88/gatehouse/internal/engine"
)

var _ engine.Sequencer = (*DeterministicClock)(nil)

// DeterministicClock is a resettable logical clock.
//
// Unlike engine.Clock it can be rewound, so a scenario that runs twice
// stamps identical seq values and its golden trace stays byte-identical.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next seq.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last seq handed out.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds to 0. The next call to Next returns 1.
func (c *DeterministicClock) Reset() {
	c.ResetTo(0)
}

// ResetTo rewinds or advances to seq.
func (c *DeterministicClock) ResetTo(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = seq
}
