package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatehouse/internal/bitmatrix"
	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

func enteredComparison(t *testing.T, f *fixture, groups, numbers int) *ComparisonRoom {
	t.Helper()
	r, err := NewComparisonRoom("comparison", groups, numbers, 0, f.opts...)
	require.NoError(t, err)
	require.NoError(t, r.Enter(t.Context()))
	return r
}

func TestNewComparisonRoom_RejectsOddCount(t *testing.T) {
	_, err := NewComparisonRoom("comparison", 3, 5, 0)
	assert.Error(t, err)
	_, err = NewComparisonRoom("comparison", 0, 6, 0)
	assert.Error(t, err)
}

func TestComparisonRoom_EnterGeneratesEveryBit(t *testing.T) {
	f := newFixture()
	r := enteredComparison(t, f, 3, 6)

	assert.Len(t, f.rec.OfKind(engine.KindBitChanged), 3*6*bitmatrix.BitsPerNumber)
	assert.Equal(t, 3, r.Puzzle().Groups())
}

func TestComparisonRoom_RetryThenComplete(t *testing.T) {
	f := newFixture()
	r := enteredComparison(t, f, 1, 2)
	ctx := t.Context()

	require.NoError(t, r.SetNumber(0, 0, 200))
	require.NoError(t, r.SetNumber(0, 1, 50))

	res, err := r.PlaceSign(ctx, 0, 0, ir.SignLessThan)
	require.NoError(t, err)
	assert.True(t, res.RetryScheduled)

	r.Tick(ctx, bitmatrix.DefaultRetryDelay)
	state, err := r.Puzzle().State(0, 0)
	require.NoError(t, err)
	assert.False(t, state.Placed, "wrong sign reset after the delay")
	assert.Equal(t, 1, f.rec.Count(engine.KindPairReset))

	require.NoError(t, r.SetNumber(0, 0, 200))
	require.NoError(t, r.SetNumber(0, 1, 50))
	res, err = r.PlaceSign(ctx, 0, 0, ir.SignGreaterThan)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.True(t, r.Completed())
	assert.Equal(t, 1, f.rec.Count(engine.KindRoomCompleted))
	assert.Equal(t, []string{"comparison"}, f.store.Completed())

	_, err = r.PlaceSign(ctx, 0, 0, ir.SignGreaterThan)
	assert.ErrorIs(t, err, ErrRoomCompleted)
	assert.ErrorIs(t, r.SetNumber(0, 0, 1), ErrRoomCompleted)
	assert.Equal(t, 1, f.rec.Count(engine.KindRoomCompleted))
}

func TestComparisonRoom_CustomRetryDelay(t *testing.T) {
	f := newFixture()
	r, err := NewComparisonRoom("comparison", 1, 2, 500*time.Millisecond, f.opts...)
	require.NoError(t, err)
	require.NoError(t, r.Enter(t.Context()))
	require.NoError(t, r.SetNumber(0, 0, 1))
	require.NoError(t, r.SetNumber(0, 1, 1))

	_, err = r.PlaceSign(t.Context(), 0, 0, ir.SignGreaterThan)
	require.NoError(t, err)
	r.Tick(t.Context(), 500*time.Millisecond)
	assert.False(t, r.Puzzle().Pending(0, 0))
}

func TestComparisonRoom_RejectionsAreNoOps(t *testing.T) {
	f := newFixture()
	r := enteredComparison(t, f, 2, 4)
	f.rec.Reset()

	_, err := r.PlaceSign(t.Context(), 5, 0, ir.SignGreaterThan)
	assert.True(t, engine.IsUnknownGroup(err))
	_, err = r.PlaceSign(t.Context(), 0, 2, ir.SignGreaterThan)
	assert.True(t, engine.IsInvalidPlacement(err))
	assert.Empty(t, f.rec.Events())
}

func TestComparisonRoom_BeforeEnter(t *testing.T) {
	f := newFixture()
	r, err := NewComparisonRoom("comparison", 1, 2, 0, f.opts...)
	require.NoError(t, err)

	r.Tick(t.Context(), time.Second)
	_, err = r.PlaceSign(t.Context(), 0, 0, ir.SignGreaterThan)
	assert.ErrorIs(t, err, ErrNotEntered)
	assert.Nil(t, r.Puzzle())
}

// brokenStore fails every completion lookup.
type brokenStore struct{}

func (brokenStore) IsRoomCompleted(context.Context, string) (bool, error) {
	return false, errors.New("disk gone")
}

func (brokenStore) MarkRoomCompleted(context.Context, string, string) error {
	return errors.New("disk gone")
}

func TestComparisonRoom_FailedEnterRejectsPlacements(t *testing.T) {
	f := newFixture()
	r := enteredComparison(t, f, 1, 2)
	ctx := t.Context()
	require.NotNil(t, r.Puzzle())

	r.store = brokenStore{}
	require.ErrorContains(t, r.Enter(ctx), "disk gone")

	assert.Nil(t, r.Puzzle(), "puzzle of the previous visit is discarded")
	_, err := r.PlaceSign(ctx, 0, 0, ir.SignGreaterThan)
	assert.ErrorIs(t, err, ErrNotEntered)
	assert.ErrorIs(t, r.SetNumber(0, 0, 1), ErrNotEntered)
	r.Tick(ctx, time.Minute)

	r.store = f.store
	require.NoError(t, r.Enter(ctx), "a later visit recovers")
	require.NotNil(t, r.Puzzle())
}

func TestComparisonRoom_ReenterDropsPendingReset(t *testing.T) {
	f := newFixture()
	r := enteredComparison(t, f, 1, 2)
	ctx := t.Context()
	require.NoError(t, r.SetNumber(0, 0, 3))
	require.NoError(t, r.SetNumber(0, 1, 3))
	_, err := r.PlaceSign(ctx, 0, 0, ir.SignLessThan)
	require.NoError(t, err)

	require.NoError(t, r.Enter(ctx))
	assert.False(t, r.Puzzle().Pending(0, 0))
	r.Tick(ctx, time.Minute)
	assert.Equal(t, 0, f.rec.Count(engine.KindPairReset))
}
