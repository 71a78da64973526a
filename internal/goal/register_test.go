package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatehouse/internal/random"
)

func TestCheckGoal_UnsetBitFails(t *testing.T) {
	for _, target := range [][]bool{
		{false, false, false},
		{true, false, true},
		{true, true, true},
	} {
		r := New(3)
		require.NoError(t, r.SetTarget(target))
		for i := 0; i < 2; i++ {
			r.SetBit(i, target[i])
		}
		assert.False(t, r.CheckGoal(), "bit 2 unset, target %v", target)

		r.SetBit(2, target[2])
		assert.True(t, r.CheckGoal(), "target %v", target)
	}
}

func TestCheckGoal_Mismatch(t *testing.T) {
	r := New(2)
	require.NoError(t, r.SetTarget([]bool{true, false}))
	r.SetBit(0, true)
	r.SetBit(1, true)
	assert.False(t, r.CheckGoal())

	r.SetBit(1, false)
	assert.True(t, r.CheckGoal())

	r.ClearBit(1)
	assert.False(t, r.CheckGoal())
}

func TestCheckGoal_ZeroWidth(t *testing.T) {
	assert.False(t, New(0).CheckGoal())
}

func TestSetTarget_WidthMismatch(t *testing.T) {
	r := New(3)
	assert.Error(t, r.SetTarget([]bool{true}))
}

func TestBitAccessorsAndReset(t *testing.T) {
	r := New(3)
	_, set := r.Bit(1)
	assert.False(t, set)

	r.SetBit(1, true)
	r.SetBit(7, true)
	r.SetBit(-1, true)
	v, set := r.Bit(1)
	assert.True(t, set)
	assert.True(t, v)
	_, set = r.Bit(7)
	assert.False(t, set)

	require.NoError(t, r.SetTarget([]bool{true, true, false}))
	r.Reset()
	_, set = r.Bit(1)
	assert.False(t, set)
	assert.Equal(t, []bool{true, true, false}, r.Target(), "reset keeps the target")
}

func TestRendering_HighestIndexLeftmost(t *testing.T) {
	r := New(3)
	require.NoError(t, r.SetTarget([]bool{true, true, false}))
	assert.Equal(t, "011", r.TargetString())

	r.SetBit(0, true)
	assert.Equal(t, "__1", r.CurrentString())
	r.SetBit(2, true)
	assert.Equal(t, "1_1", r.CurrentString())
}

func TestGenerateTarget_Deterministic(t *testing.T) {
	a, b := New(16), New(16)
	a.GenerateTarget(random.New(9))
	b.GenerateTarget(random.New(9))
	assert.Equal(t, a.Target(), b.Target())
	assert.Equal(t, 16, a.Width())
}
