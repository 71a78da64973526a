// Package goal holds the target bit vector a room's circuit outputs must
// match.
package goal

import (
	"fmt"
	"math/rand"
	"strings"
)

// Bit is one live register slot.
type Bit struct {
	Set   bool
	Value bool
}

// Register is a fixed-width target plus the live bits written by circuit
// sinks. It does not own room completion; callers act on CheckGoal.
type Register struct {
	bits   []Bit
	target []bool
}

// New creates a register of width bits, all unset, with an all-false target.
func New(width int) *Register {
	return &Register{
		bits:   make([]Bit, width),
		target: make([]bool, width),
	}
}

// Width returns the number of bits.
func (r *Register) Width() int {
	return len(r.bits)
}

// GenerateTarget replaces the target with uniform random bits.
func (r *Register) GenerateTarget(rng *rand.Rand) {
	for i := range r.target {
		r.target[i] = rng.Intn(2) == 1
	}
}

// SetTarget replaces the target. bits must match the register width.
func (r *Register) SetTarget(bits []bool) error {
	if len(bits) != len(r.target) {
		return fmt.Errorf("target has %d bits, register has %d", len(bits), len(r.target))
	}
	copy(r.target, bits)
	return nil
}

// Target returns a copy of the target.
func (r *Register) Target() []bool {
	out := make([]bool, len(r.target))
	copy(out, r.target)
	return out
}

// SetBit writes a live bit. Out-of-range indices are ignored.
func (r *Register) SetBit(index int, value bool) {
	if index < 0 || index >= len(r.bits) {
		return
	}
	r.bits[index] = Bit{Set: true, Value: value}
}

// ClearBit returns a live bit to unset.
func (r *Register) ClearBit(index int) {
	if index < 0 || index >= len(r.bits) {
		return
	}
	r.bits[index] = Bit{}
}

// Bit returns a live bit.
func (r *Register) Bit(index int) (value, set bool) {
	if index < 0 || index >= len(r.bits) {
		return false, false
	}
	return r.bits[index].Value, r.bits[index].Set
}

// Reset unsets every live bit. The target is kept.
func (r *Register) Reset() {
	for i := range r.bits {
		r.bits[i] = Bit{}
	}
}

// CheckGoal reports whether every bit is set and equals the target.
// A zero-width register is never satisfied.
func (r *Register) CheckGoal() bool {
	if len(r.bits) == 0 {
		return false
	}
	for i, b := range r.bits {
		if !b.Set || b.Value != r.target[i] {
			return false
		}
	}
	return true
}

// TargetString renders the target with the highest index leftmost.
func (r *Register) TargetString() string {
	var sb strings.Builder
	for i := len(r.target) - 1; i >= 0; i-- {
		sb.WriteByte(digit(r.target[i]))
	}
	return sb.String()
}

// CurrentString renders the live bits like TargetString, with "_" for
// unset bits.
func (r *Register) CurrentString() string {
	var sb strings.Builder
	for i := len(r.bits) - 1; i >= 0; i-- {
		if !r.bits[i].Set {
			sb.WriteByte('_')
			continue
		}
		sb.WriteByte(digit(r.bits[i].Value))
	}
	return sb.String()
}

func digit(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}
