package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPuzzleError_Message(t *testing.T) {
	err := NewMissingReferenceError("wall_1", "Slot_3", "Slot_9")
	assert.Equal(t,
		`MISSING_REFERENCE: source "Slot_9" does not name a slot or input of this group (group=wall_1, element=Slot_3)`,
		err.Error())
	assert.Equal(t, "Slot_9", err.Source)

	bare := &PuzzleError{Code: ErrCodeUnknownGroup, Message: "no such group"}
	assert.Equal(t, "UNKNOWN_GROUP: no such group", bare.Error())
}

func TestPuzzleError_PredicatesSeeThroughWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"missing reference", NewMissingReferenceError("g", "s", "x"), IsMissingReference},
		{"arity", NewArityMismatchError("g", "s", 3), IsArityMismatch},
		{"unknown group", NewUnknownGroupError("g"), IsUnknownGroup},
		{"invalid placement", NewInvalidPlacementError("g", "s", "no such slot"), IsInvalidPlacement},
		{"already locked", NewAlreadyLockedError("0", "1"), IsAlreadyLocked},
		{"cycle", NewCycleError("g", []string{"a", "b", "a"}), IsCycle},
		{"duplicate input", NewDuplicateInputError("g", "Input_1"), IsDuplicateInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("place: %w", tt.err)
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(wrapped))
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestPuzzleError_PredicatesAreExclusive(t *testing.T) {
	err := NewAlreadyLockedError("0", "2")
	assert.False(t, IsInvalidPlacement(err))
	assert.False(t, IsCycle(err))
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(fmt.Errorf("outer: %w", NewArityMismatchError("g", "s", 1)))
	require.True(t, ok)
	assert.Equal(t, ErrCodeArityMismatch, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestNewCycleError_RendersPath(t *testing.T) {
	err := NewCycleError("wall_2", []string{"Slot_1", "Slot_2", "Slot_1"})
	assert.Equal(t, "Slot_1 -> Slot_2 -> Slot_1", err.Source)
	assert.Equal(t, "Slot_1", err.Element)

	empty := NewCycleError("wall_2", nil)
	assert.Empty(t, empty.Element)
}
