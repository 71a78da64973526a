package room

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/gatehouse/internal/bitmatrix"
	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

// ComparisonRoom is the bit-matrix puzzle with its retry scheduler.
type ComparisonRoom struct {
	base
	groups     int
	numbers    int
	retryDelay time.Duration

	puzzle *bitmatrix.Puzzle
	sched  *engine.Scheduler
}

var _ Room = (*ComparisonRoom)(nil)

// NewComparisonRoom creates a room of groups × numbersPerGroup numbers.
// numbersPerGroup must be even. A non-positive retryDelay means
// bitmatrix.DefaultRetryDelay.
func NewComparisonRoom(id string, groups, numbersPerGroup int, retryDelay time.Duration, opts ...Option) (*ComparisonRoom, error) {
	if err := bitmatrix.ValidateShape(groups, numbersPerGroup); err != nil {
		return nil, fmt.Errorf("comparison room %s: %w", id, err)
	}
	if retryDelay <= 0 {
		retryDelay = bitmatrix.DefaultRetryDelay
	}
	return &ComparisonRoom{
		base:       newBase(id, opts),
		groups:     groups,
		numbers:    numbersPerGroup,
		retryDelay: retryDelay,
	}, nil
}

// Enter builds a fresh puzzle and scheduler and generates every number.
// Resets still pending from a previous visit are dropped with its scheduler.
func (r *ComparisonRoom) Enter(ctx context.Context) error {
	r.puzzle, r.sched = nil, nil
	build, err := r.enter(ctx)
	if err != nil || !build {
		return err
	}
	rng, err := r.visitRNG()
	if err != nil {
		return r.abandon(err)
	}

	sched := engine.NewScheduler()
	puzzle, err := bitmatrix.New(r.groups, r.numbers, sched,
		bitmatrix.WithRNG(rng),
		bitmatrix.WithEmitter(r.emitter),
		bitmatrix.WithRetryDelay(r.retryDelay),
	)
	if err != nil {
		return r.abandon(err)
	}
	r.puzzle, r.sched = puzzle, sched
	r.puzzle.GenerateAll()
	return nil
}

// Tick advances the retry scheduler.
func (r *ComparisonRoom) Tick(_ context.Context, elapsed time.Duration) {
	if r.sched == nil || r.completed {
		return
	}
	r.sched.Advance(elapsed)
}

// Puzzle returns the puzzle of the current visit, nil when inert.
func (r *ComparisonRoom) Puzzle() *bitmatrix.Puzzle {
	return r.puzzle
}

// PlaceSign places a sign on a pair. The placement that solves the last
// pair completes the room.
func (r *ComparisonRoom) PlaceSign(ctx context.Context, group, pair int, kind ir.SignKind) (bitmatrix.Placement, error) {
	if err := r.ready(); err != nil {
		return bitmatrix.Placement{}, err
	}
	res, err := r.puzzle.PlaceSign(group, pair, kind)
	if err != nil {
		return bitmatrix.Placement{}, reject(err)
	}
	if res.Completed {
		if err := r.complete(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// SetNumber overrides a number of the current visit.
func (r *ComparisonRoom) SetNumber(group, number int, value byte) error {
	if err := r.ready(); err != nil {
		return err
	}
	return r.puzzle.SetNumber(group, number, value)
}
